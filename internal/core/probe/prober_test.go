package probe

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// startTCPListener 启动一个接受后立即关闭连接的本地监听
func startTCPListener(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			_ = c.Close()
		}
	}()

	return ln.Addr().String()
}

// closedPort 返回一个当前没有监听的本地地址
func closedPort(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func selfSignedTLS(t *testing.T, alpn ...string) *tls.Config {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "cdnopt.test"},
		DNSNames:     []string{"cdnopt.test"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1")},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)

	return &tls.Config{
		Certificates: []tls.Certificate{{Certificate: [][]byte{der}, PrivateKey: key}},
		NextProtos:   alpn,
	}
}

func newProber(t *testing.T, cfg Config) *Prober {
	t.Helper()
	p, err := New(cfg, clock.New())
	require.NoError(t, err)
	return p
}

// ============================================================================
//                              配置
// ============================================================================

func TestConfig_Validate(t *testing.T) {
	t.Run("Default", func(t *testing.T) {
		assert.NoError(t, DefaultConfig().Validate())
	})

	t.Run("InvalidPort", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Port = 0
		assert.Error(t, cfg.Validate())
		cfg.Port = 70000
		assert.Error(t, cfg.Validate())
	})

	t.Run("UnknownNetwork", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Network = "sctp"
		assert.Error(t, cfg.Validate())

		_, err := New(cfg, nil)
		assert.Error(t, err)
	})
}

func TestParseNetwork(t *testing.T) {
	for _, s := range []string{"tcp", "tls", "quic"} {
		n, err := ParseNetwork(s)
		require.NoError(t, err)
		assert.Equal(t, Network(s), n)
	}

	n, err := ParseNetwork("")
	require.NoError(t, err)
	assert.Equal(t, NetworkTCP, n)

	_, err = ParseNetwork("udp")
	assert.Error(t, err)
}

// ============================================================================
//                              TCP 探测
// ============================================================================

func TestProber_TCPSuccess(t *testing.T) {
	addr := startTCPListener(t)
	p := newProber(t, DefaultConfig())

	att := p.Probe(context.Background(), types.Candidate{Address: addr})
	require.NoError(t, att.Err)
	assert.GreaterOrEqual(t, att.Latency, time.Duration(0))
	assert.Less(t, att.Latency, 5*time.Second)
}

func TestProber_DefaultPort(t *testing.T) {
	addr := startTCPListener(t)
	_, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	cfg := DefaultConfig()
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	cfg.Port = port

	p := newProber(t, cfg)
	att := p.Probe(context.Background(), types.Candidate{Address: "127.0.0.1"})
	assert.NoError(t, att.Err)
}

func TestProber_ConnectionRefused(t *testing.T) {
	p := newProber(t, DefaultConfig())

	att := p.Probe(context.Background(), types.Candidate{Address: closedPort(t)})
	require.Error(t, att.Err)

	outcome, reason := Classify(att.Err)
	assert.Equal(t, types.OutcomeFailure, outcome)
	assert.Equal(t, types.ReasonConnectionRefused, reason)
}

func TestProber_InvalidCandidate(t *testing.T) {
	p := newProber(t, DefaultConfig())

	att := p.Probe(context.Background(), types.Candidate{Address: "not-an-ip"})
	assert.ErrorIs(t, att.Err, types.ErrInvalidCandidate)
}

func TestProber_CancelledContext(t *testing.T) {
	addr := startTCPListener(t)
	p := newProber(t, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	att := p.Probe(ctx, types.Candidate{Address: addr})
	require.Error(t, att.Err)

	outcome, reason := Classify(att.Err)
	assert.Equal(t, types.OutcomeFailure, outcome)
	assert.Equal(t, types.ReasonCancelled, reason)
}

func TestProber_MockClockLatency(t *testing.T) {
	addr := startTCPListener(t)
	p, err := New(DefaultConfig(), clock.NewMock())
	require.NoError(t, err)

	// mock 时钟不前进，耗时恒为 0
	att := p.Probe(context.Background(), types.Candidate{Address: addr})
	require.NoError(t, att.Err)
	assert.Equal(t, time.Duration(0), att.Latency)
}

// ============================================================================
//                              TLS 探测
// ============================================================================

func TestProber_TLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	defer srv.Close()
	addr := srv.Listener.Addr().String()

	t.Run("InsecureSkipVerify", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Network = NetworkTLS
		cfg.InsecureSkipVerify = true
		p := newProber(t, cfg)

		att := p.Probe(context.Background(), types.Candidate{Address: addr})
		assert.NoError(t, att.Err)
	})

	t.Run("UnknownAuthority", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Network = NetworkTLS
		cfg.ServerName = "example.com"
		p := newProber(t, cfg)

		att := p.Probe(context.Background(), types.Candidate{Address: addr})
		require.Error(t, att.Err)

		var hsErr *HandshakeError
		assert.ErrorAs(t, att.Err, &hsErr)
		_, reason := Classify(att.Err)
		assert.Equal(t, types.ReasonHandshakeFailed, reason)
	})

	t.Run("PlainTCPPeer", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Network = NetworkTLS
		cfg.InsecureSkipVerify = true
		p := newProber(t, cfg)

		att := p.Probe(context.Background(), types.Candidate{Address: startTCPListener(t)})
		require.Error(t, att.Err)
		_, reason := Classify(att.Err)
		assert.Contains(t, []types.FailureReason{types.ReasonHandshakeFailed, types.ReasonConnectionReset}, reason)
	})
}

// ============================================================================
//                              QUIC 探测
// ============================================================================

func TestProber_QUIC(t *testing.T) {
	ln, err := quic.ListenAddr("127.0.0.1:0", selfSignedTLS(t, "h3"), nil)
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			conn, err := ln.Accept(ctx)
			if err != nil {
				return
			}
			_ = conn.CloseWithError(0, "")
		}
	}()

	cfg := DefaultConfig()
	cfg.Network = NetworkQUIC
	cfg.InsecureSkipVerify = true
	p := newProber(t, cfg)

	att := p.Probe(context.Background(), types.Candidate{Address: ln.Addr().String()})
	assert.NoError(t, att.Err)
}

func TestProber_QUICALPNMismatch(t *testing.T) {
	ln, err := quic.ListenAddr("127.0.0.1:0", selfSignedTLS(t, "other"), nil)
	require.NoError(t, err)
	defer ln.Close()

	cfg := DefaultConfig()
	cfg.Network = NetworkQUIC
	cfg.InsecureSkipVerify = true
	cfg.QUICHandshakeIdleTimeout = 2 * time.Second
	p := newProber(t, cfg)

	att := p.Probe(context.Background(), types.Candidate{Address: ln.Addr().String()})
	require.Error(t, att.Err)

	outcome, reason := Classify(att.Err)
	assert.Equal(t, types.OutcomeFailure, outcome)
	assert.Equal(t, types.ReasonHandshakeFailed, reason)
}
