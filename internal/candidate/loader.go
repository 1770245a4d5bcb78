package candidate

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"strings"

	"go4.org/netipx"

	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("candidate")

// DefaultMaxPerPrefix 每个 CIDR 默认最多展开的地址数
const DefaultMaxPerPrefix = 256

// ErrNoCandidates 加载后没有可用候选
var ErrNoCandidates = errors.New("no usable candidates")

// ============================================================================
//                              配置
// ============================================================================

// Options 加载选项
type Options struct {
	// MaxPerPrefix 每个 CIDR 最多展开的地址数，<= 0 时使用 DefaultMaxPerPrefix
	MaxPerPrefix int

	// IPv4 是否接受 IPv4 地址
	IPv4 bool

	// IPv6 是否接受 IPv6 地址
	IPv6 bool

	// Exclude 排除的地址或 CIDR
	Exclude []string

	// Limit 最多保留的候选数，0 表示不限
	Limit int

	// DefaultPort 不带端口的候选实际拨号的端口，用于合并 "IP" 与 "IP:DefaultPort"；
	// 0 表示不合并
	DefaultPort int
}

// DefaultOptions 返回默认选项
func DefaultOptions() Options {
	return Options{
		MaxPerPrefix: DefaultMaxPerPrefix,
		IPv4:         true,
		IPv6:         true,
	}
}

// Validate 验证选项
func (o Options) Validate() error {
	if !o.IPv4 && !o.IPv6 {
		return errors.New("both IPv4 and IPv6 are disabled")
	}
	if o.Limit < 0 {
		return fmt.Errorf("negative limit %d", o.Limit)
	}
	if o.DefaultPort < 0 || o.DefaultPort > 65535 {
		return fmt.Errorf("invalid default port %d", o.DefaultPort)
	}
	return nil
}

// ============================================================================
//                              Loader
// ============================================================================

// Skipped 被跳过的条目
type Skipped struct {
	Line   int
	Text   string
	Reason string
}

// Result 加载结果
type Result struct {
	// Addrs 规范化后的地址，保持输入顺序
	Addrs []string

	// Skipped 被跳过的条目
	Skipped []Skipped

	// Duplicates 被丢弃的重复地址数
	Duplicates int

	// Excluded 被排除规则过滤的地址数
	Excluded int
}

// Candidates 为地址分配 Index
func (r *Result) Candidates() []types.Candidate {
	return types.NewCandidates(r.Addrs)
}

// Loader 候选列表加载器
type Loader struct {
	opts    Options
	exclude *netipx.IPSet
}

// NewLoader 创建加载器
func NewLoader(opts Options) (*Loader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxPerPrefix <= 0 {
		opts.MaxPerPrefix = DefaultMaxPerPrefix
	}

	var b netipx.IPSetBuilder
	for _, raw := range opts.Exclude {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		prefix, err := parsePrefix(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude %q: %w", raw, err)
		}
		b.AddPrefix(prefix)
	}
	set, err := b.IPSet()
	if err != nil {
		return nil, fmt.Errorf("build exclude set: %w", err)
	}

	return &Loader{opts: opts, exclude: set}, nil
}

// LoadFile 从文件加载
func (l *Loader) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open candidate list: %w", err)
	}
	defer f.Close()

	res, err := l.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Load 从 reader 加载
func (l *Loader) Load(r io.Reader) (*Result, error) {
	res := &Result{}
	seen := make(map[netip.AddrPort]struct{})

	add := func(ip netip.Addr, port uint16) bool {
		key := port
		if key == 0 {
			key = uint16(l.opts.DefaultPort)
		}
		ep := netip.AddrPortFrom(ip, key)
		if _, dup := seen[ep]; dup {
			res.Duplicates++
			return true
		}
		seen[ep] = struct{}{}
		res.Addrs = append(res.Addrs, canonical(ip, port))
		return l.opts.Limit == 0 || len(res.Addrs) < l.opts.Limit
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
scan:
	for scanner.Scan() {
		lineNo++
		text := stripComment(scanner.Text())
		if text == "" {
			continue
		}

		if strings.Contains(text, "/") {
			prefix, err := netip.ParsePrefix(text)
			if err != nil {
				res.Skipped = append(res.Skipped, Skipped{Line: lineNo, Text: text, Reason: err.Error()})
				continue
			}
			for _, addr := range l.expand(prefix, res) {
				if !add(addr, 0) {
					break scan
				}
			}
			continue
		}

		ip, port, err := types.ParseAddress(text)
		if err != nil {
			res.Skipped = append(res.Skipped, Skipped{Line: lineNo, Text: text, Reason: err.Error()})
			continue
		}
		if reason := l.reject(ip); reason != "" {
			if reason == reasonExcluded {
				res.Excluded++
			} else {
				res.Skipped = append(res.Skipped, Skipped{Line: lineNo, Text: text, Reason: reason})
			}
			continue
		}
		if !add(ip, port) {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read candidate list: %w", err)
	}

	logger.Debug("candidates loaded",
		"count", len(res.Addrs),
		"skipped", len(res.Skipped),
		"duplicates", res.Duplicates,
		"excluded", res.Excluded)

	if len(res.Addrs) == 0 {
		return res, ErrNoCandidates
	}
	return res, nil
}

const reasonExcluded = "excluded"

// reject 返回地址被拒绝的原因，空串表示接受
func (l *Loader) reject(ip netip.Addr) string {
	switch {
	case ip.Is4() && !l.opts.IPv4:
		return "ipv4 disabled"
	case ip.Is6() && !l.opts.IPv6:
		return "ipv6 disabled"
	case l.exclude.Contains(ip):
		return reasonExcluded
	}
	return ""
}

// expand 按地址顺序取前缀内前 MaxPerPrefix 个地址，再去掉被排除的
func (l *Loader) expand(prefix netip.Prefix, res *Result) []netip.Addr {
	prefix = prefix.Masked()
	first := prefix.Addr().Unmap()
	if reason := l.reject(first); reason != "" && reason != reasonExcluded {
		return nil
	}

	var out []netip.Addr
	last := netipx.PrefixLastIP(prefix)
	addr := prefix.Addr()
	for i := 0; i < l.opts.MaxPerPrefix && addr.IsValid(); i, addr = i+1, addr.Next() {
		if l.exclude.Contains(addr) {
			res.Excluded++
		} else {
			out = append(out, addr.Unmap())
		}
		if addr == last {
			break
		}
	}
	return out
}

func stripComment(line string) string {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func canonical(ip netip.Addr, port uint16) string {
	if port == 0 {
		return ip.String()
	}
	return netip.AddrPortFrom(ip, port).String()
}

func parsePrefix(raw string) (netip.Prefix, error) {
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Prefix{}, err
		}
		return p.Masked(), nil
	}
	ip, err := netip.ParseAddr(raw)
	if err != nil {
		return netip.Prefix{}, err
	}
	ip = ip.Unmap()
	return netip.PrefixFrom(ip, ip.BitLen()), nil
}
