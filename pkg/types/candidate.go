package types

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
)

// ============================================================================
//                              Candidate - 候选地址
// ============================================================================

// Candidate 待探测的候选地址
//
// Address 是候选的身份标识（IP，可选带端口），Index 是其在输入列表中的位置，
// 用于报告排序时的稳定性保证。加载后不可变。
type Candidate struct {
	// Address 地址字符串，例如 "104.16.1.1"、"104.16.1.1:8443"、"[2606:4700::1]:443"
	Address string

	// Index 在原始候选列表中的位置
	Index int
}

// NewCandidates 按顺序为地址列表分配 Index
func NewCandidates(addrs []string) []Candidate {
	out := make([]Candidate, len(addrs))
	for i, a := range addrs {
		out[i] = Candidate{Address: a, Index: i}
	}
	return out
}

// String 返回候选地址
func (c Candidate) String() string {
	return c.Address
}

// ParseAddress 解析候选地址
//
// 返回 IP 与端口；地址未带端口时 port 为 0。
// 主机名不被接受（不做 DNS 解析）。
func ParseAddress(addr string) (netip.Addr, uint16, error) {
	if ap, err := netip.ParseAddrPort(addr); err == nil {
		if ap.Port() == 0 {
			return netip.Addr{}, 0, fmt.Errorf("%w: zero port in %q", ErrInvalidCandidate, addr)
		}
		return ap.Addr().Unmap(), ap.Port(), nil
	}
	if ip, err := netip.ParseAddr(addr); err == nil {
		if ip.Zone() != "" {
			return netip.Addr{}, 0, fmt.Errorf("%w: zoned address %q", ErrInvalidCandidate, addr)
		}
		return ip.Unmap(), 0, nil
	}
	return netip.Addr{}, 0, fmt.Errorf("%w: %q", ErrInvalidCandidate, addr)
}

// DialAddress 返回拨号使用的 host:port
//
// 候选自带端口时优先使用，否则使用 defaultPort。
func (c Candidate) DialAddress(defaultPort int) (string, error) {
	ip, port, err := ParseAddress(c.Address)
	if err != nil {
		return "", err
	}
	p := int(port)
	if p == 0 {
		p = defaultPort
	}
	if p <= 0 || p > 65535 {
		return "", fmt.Errorf("%w: no usable port for %q", ErrInvalidCandidate, c.Address)
	}
	return net.JoinHostPort(ip.String(), strconv.Itoa(p)), nil
}
