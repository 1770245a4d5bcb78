// Package governor 实现单次探测的超时治理
//
// Governor 在每次尝试开始前启动计时器，然后让尝试结果与计时器竞争：
//   - 尝试先完成：按结果生成样本；成功但耗时超过超时值仍记为超时
//   - 计时器先触发：取消尝试的 ctx，并等待尝试退出（套接字已释放）后记为超时
//
// 计时器触发时若尝试结果已可观测，以结果为准（先观测到的事件获胜）。
// 取消后尝试仍报告连接已建立且耗时不超过超时值时，记为成功。
//
// 每个 Governor.Run 持有独立的计时器与 ctx，慢探测不会影响其他探测的计时。
package governor

import (
	"context"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/dep2p/go-cdnopt/internal/core/probe"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("governor")

// Governor 超时治理器
type Governor struct {
	timeout time.Duration
	clock   clock.Clock
}

// New 创建超时治理器
func New(timeout time.Duration, clk clock.Clock) (*Governor, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidTimeout, timeout)
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Governor{timeout: timeout, clock: clk}, nil
}

// Timeout 返回超时值
func (g *Governor) Timeout() time.Duration {
	return g.timeout
}

// Run 在超时约束下执行一次探测并返回样本
func (g *Governor) Run(ctx context.Context, c types.Candidate, p pkgif.Prober) types.Sample {
	attemptCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 计时器必须在尝试启动前布置
	timer := g.clock.Timer(g.timeout)
	defer timer.Stop()

	done := make(chan types.Attempt, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("probe panicked", "addr", c.Address, "panic", r)
				done <- types.Attempt{Err: fmt.Errorf("probe panic: %v", r)}
			}
		}()
		done <- p.Probe(attemptCtx, c)
	}()

	select {
	case att := <-done:
		return g.settle(c, att)

	case <-timer.C:
		select {
		case att := <-done:
			return g.settle(c, att)
		default:
		}

		cancel()
		att := <-done

		if att.Err == nil && att.Latency <= g.timeout {
			return types.Success(c, clampLatency(att.Latency))
		}

		logger.Debug("probe timed out",
			"addr", c.Address,
			"timeout", g.timeout)
		return types.Timeout(c, g.timeout)
	}
}

// settle 将在计时器之前完成的尝试转换为样本
func (g *Governor) settle(c types.Candidate, att types.Attempt) types.Sample {
	if att.Err == nil {
		if att.Latency > g.timeout {
			return types.Timeout(c, g.timeout)
		}
		return types.Success(c, clampLatency(att.Latency))
	}

	outcome, reason := probe.Classify(att.Err)
	if outcome == types.OutcomeTimeout {
		return types.Timeout(c, g.timeout)
	}

	latency := clampLatency(att.Latency)
	if latency > g.timeout {
		latency = g.timeout
	}
	return types.Failure(c, reason, latency, att.Err)
}

func clampLatency(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

// ============================================================================
//                              Factory
// ============================================================================

// Factory 按运行参数创建 Governor，所有 Governor 共享同一时钟
type Factory struct {
	clock clock.Clock
}

// NewFactory 创建工厂
func NewFactory(clk clock.Clock) *Factory {
	if clk == nil {
		clk = clock.New()
	}
	return &Factory{clock: clk}
}

// New 创建指定超时的 Governor
func (f *Factory) New(timeout time.Duration) (*Governor, error) {
	return New(timeout, f.clock)
}

// Clock 返回共享时钟
func (f *Factory) Clock() clock.Clock {
	return f.clock
}
