package probe

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
)

// HandshakeError 传输层已连通但握手失败
type HandshakeError struct {
	Network Network
	Err     error
}

func (e *HandshakeError) Error() string {
	return fmt.Sprintf("%s handshake: %v", e.Network, e.Err)
}

func (e *HandshakeError) Unwrap() error {
	return e.Err
}

// tlsConfig 构造客户端 TLS 配置
func (p *Prober) tlsConfig(addr string, alpn ...string) *tls.Config {
	serverName := p.config.ServerName
	if serverName == "" {
		// 无 SNI 时以 IP 作为 ServerName，仅在跳过校验时有意义
		serverName, _, _ = net.SplitHostPort(addr)
	}
	return &tls.Config{
		ServerName:         serverName,
		InsecureSkipVerify: p.config.InsecureSkipVerify, //nolint:gosec // G402: 用户显式选择
		NextProtos:         p.config.alpn(alpn...),
		MinVersion:         tls.VersionTLS12,
	}
}

// dialTLS 建立 TCP 连接并完成 TLS 握手
func (p *Prober) dialTLS(ctx context.Context, addr string) error {
	raw, err := p.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer raw.Close()

	conn := tls.Client(raw, p.tlsConfig(addr))
	if err := conn.HandshakeContext(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &HandshakeError{Network: NetworkTLS, Err: err}
	}
	return nil
}
