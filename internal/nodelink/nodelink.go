// Package nodelink 解析代理分享链接并替换服务器地址
//
// 分享链接形如 scheme://userinfo@host:port?query#fragment，例如
//
//	vless://0b5e...@cdn.example.com:443?security=tls&type=ws#HK-01
//
// 探测只关心端口与 TLS 服务器名；Rewrite 用候选地址替换 host，
// 其余部分原样保留。
package nodelink

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// ErrInvalidLink 分享链接格式错误
var ErrInvalidLink = errors.New("invalid node link")

// Link 解析后的分享链接
type Link struct {
	u    *url.URL
	port int
}

// Parse 解析分享链接，要求包含 scheme、host 与端口
func Parse(raw string) (*Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme == "" {
		return nil, fmt.Errorf("%w: missing scheme", ErrInvalidLink)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidLink)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: invalid port %q", ErrInvalidLink, u.Port())
	}
	return &Link{u: u, port: port}, nil
}

// Scheme 协议名
func (l *Link) Scheme() string { return l.u.Scheme }

// Host 原始服务器地址（不含端口与方括号）
func (l *Link) Host() string { return l.u.Hostname() }

// Port 服务器端口，作为探测的默认端口
func (l *Link) Port() int { return l.port }

// Name 节点名（fragment）
func (l *Link) Name() string { return l.u.Fragment }

// Param 返回查询参数
func (l *Link) Param(key string) string { return l.u.Query().Get(key) }

// HostIsName 原始 host 是否为域名
func (l *Link) HostIsName() bool {
	_, err := netip.ParseAddr(l.Host())
	return err != nil
}

// ServerName TLS 服务器名
//
// 依次取 sni、peer、host 参数，最后回退到域名形式的原始 host。
func (l *Link) ServerName() string {
	q := l.u.Query()
	for _, key := range []string{"sni", "peer", "host"} {
		if v := q.Get(key); v != "" {
			return v
		}
	}
	if l.HostIsName() {
		return l.Host()
	}
	return ""
}

// Network 根据链接推断探测网络：tcp、tls 或 quic
func (l *Link) Network() string {
	switch strings.ToLower(l.u.Scheme) {
	case "hysteria2", "hy2", "hysteria", "tuic":
		return "quic"
	case "trojan":
		return "tls"
	}
	if strings.EqualFold(l.Param("type"), "quic") {
		return "quic"
	}
	switch strings.ToLower(l.Param("security")) {
	case "tls", "xtls", "reality":
		return "tls"
	}
	return "tcp"
}

// Rewrite 用候选地址替换 host
//
// 候选自带端口时替换端口，否则保留链接端口。原始 host 为域名且未设置
// sni 时补充 sni=<原始 host>，保证替换后 TLS 握手的服务器名不变。
func (l *Link) Rewrite(addr string) (string, error) {
	ip, port, err := types.ParseAddress(addr)
	if err != nil {
		return "", err
	}
	p := int(port)
	if p == 0 {
		p = l.port
	}

	u := *l.u
	u.Host = net.JoinHostPort(ip.String(), strconv.Itoa(p))

	if l.HostIsName() && l.Param("sni") == "" {
		sni := "sni=" + url.QueryEscape(l.Host())
		if u.RawQuery == "" {
			u.RawQuery = sni
		} else {
			u.RawQuery += "&" + sni
		}
	}
	return u.String(), nil
}

// String 返回原始链接
func (l *Link) String() string {
	return l.u.String()
}
