package scheduler

import (
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/multierr"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// Config 调度器配置
//
// 超时与并发上限属于每次运行的参数，见 Scheduler.Run。
type Config struct {
	// DispatchRate 每秒最多派发的探测数，0 表示不限速
	DispatchRate float64

	// DispatchBurst 令牌桶容量，<= 0 时取 1
	DispatchBurst int

	// DefaultPort 候选未带端口时探测器使用的端口，用于识别指向同一端点的重复候选；
	// 0 表示未知，此时不带端口的候选只与同样不带端口的候选比较
	DefaultPort int
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{}
}

// Validate 验证配置
func (c Config) Validate() error {
	if c.DispatchRate < 0 {
		return fmt.Errorf("negative dispatch rate %v", c.DispatchRate)
	}
	if c.DefaultPort < 0 || c.DefaultPort > 65535 {
		return fmt.Errorf("invalid default port %d", c.DefaultPort)
	}
	return nil
}

// ValidateRun 校验一次运行的输入
//
// 所有问题一并返回，可用 errors.Is 匹配 types.ErrEmptyCandidates、
// types.ErrInvalidTimeout、types.ErrInvalidConcurrency、
// types.ErrInvalidCandidate、types.ErrDuplicateCandidate。
func ValidateRun(candidates []types.Candidate, timeout time.Duration, limit int) error {
	return validateRun(candidates, timeout, limit, 0)
}

// validateRun 按端点（规范化 IP 与实际拨号端口）识别重复候选
func validateRun(candidates []types.Candidate, timeout time.Duration, limit, defaultPort int) error {
	var err error

	if len(candidates) == 0 {
		err = multierr.Append(err, types.ErrEmptyCandidates)
	}
	if timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %s", types.ErrInvalidTimeout, timeout))
	}
	if limit <= 0 {
		err = multierr.Append(err, fmt.Errorf("%w: %d", types.ErrInvalidConcurrency, limit))
	}

	seen := make(map[netip.AddrPort]int, len(candidates))
	for i, c := range candidates {
		if c.Index != i {
			err = multierr.Append(err, fmt.Errorf("%w: %q has index %d at position %d",
				types.ErrInvalidCandidate, c.Address, c.Index, i))
		}
		ip, port, perr := types.ParseAddress(c.Address)
		if perr != nil {
			err = multierr.Append(err, perr)
			continue
		}
		if port == 0 {
			port = uint16(defaultPort)
		}
		key := netip.AddrPortFrom(ip, port)
		if first, dup := seen[key]; dup {
			err = multierr.Append(err, fmt.Errorf("%w: %q at position %d duplicates %q at position %d",
				types.ErrDuplicateCandidate, c.Address, i, candidates[first].Address, first))
			continue
		}
		seen[key] = i
	}

	return err
}
