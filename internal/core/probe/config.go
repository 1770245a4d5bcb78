package probe

import (
	"errors"
	"fmt"
	"time"
)

// Network 探测方式
type Network string

const (
	// NetworkTCP TCP 连接
	NetworkTCP Network = "tcp"
	// NetworkTLS TCP + TLS 握手
	NetworkTLS Network = "tls"
	// NetworkQUIC QUIC 握手
	NetworkQUIC Network = "quic"
)

// ParseNetwork 解析探测方式
func ParseNetwork(s string) (Network, error) {
	switch n := Network(s); n {
	case NetworkTCP, NetworkTLS, NetworkQUIC:
		return n, nil
	case "":
		return NetworkTCP, nil
	default:
		return "", fmt.Errorf("unknown probe network %q", s)
	}
}

// Config 探测器配置
type Config struct {
	// Network 探测方式
	Network Network

	// Port 候选未带端口时使用的端口
	Port int

	// ServerName TLS/QUIC 握手使用的 SNI
	ServerName string

	// InsecureSkipVerify 跳过证书校验
	//
	// CDN 节点的证书通常与 SNI 匹配，但测速场景下常常只关心握手是否完成。
	InsecureSkipVerify bool

	// ALPN TLS/QUIC 握手协商的协议
	ALPN []string

	// QUICHandshakeIdleTimeout QUIC 握手空闲超时，0 使用 quic-go 默认值
	QUICHandshakeIdleTimeout time.Duration
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Network: NetworkTCP,
		Port:    443,
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	if _, err := ParseNetwork(string(c.Network)); err != nil {
		return err
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid probe port %d", c.Port)
	}
	if c.QUICHandshakeIdleTimeout < 0 {
		return errors.New("negative quic handshake idle timeout")
	}
	return nil
}

func (c Config) alpn(fallback ...string) []string {
	if len(c.ALPN) > 0 {
		return c.ALPN
	}
	return fallback
}
