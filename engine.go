package cdnopt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	"github.com/dep2p/go-cdnopt/internal/core/aggregator"
	"github.com/dep2p/go-cdnopt/internal/core/metrics"
	"github.com/dep2p/go-cdnopt/internal/core/scheduler"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("cdnopt")

// startTimeout Fx App 启动超时
const startTimeout = 10 * time.Second

// ════════════════════════════════════════════════════════════════════════════
//                              Engine
// ════════════════════════════════════════════════════════════════════════════

// Engine 候选地址探测引擎
//
// 同一 Engine 可以执行多次运行；运行之间互不影响，但不应并发调用 Run。
type Engine struct {
	opts *options
	app  *fx.App

	// 由 Fx 注入
	scheduler *scheduler.Scheduler
	prober    pkgif.Prober
	clock     clock.Clock
	recorder  *metrics.Recorder

	mu      sync.Mutex
	started bool
	closed  bool
}

// New 创建引擎
//
// 必须通过 WithTimeout/WithConcurrency 或 WithConfig 提供超时与并发上限。
func New(opts ...Option) (*Engine, error) {
	o := newOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	e := &Engine{opts: o}
	app, err := buildFxApp(o, e)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	e.app = app
	return e, nil
}

// Start 启动引擎
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrEngineClosed
	}
	if e.started {
		return ErrAlreadyStarted
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := e.app.Start(startCtx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	e.started = true

	logger.Debug("engine started",
		"network", e.opts.probe.Network,
		"port", e.opts.probe.Port,
		"timeout", e.opts.timeout,
		"concurrency", e.opts.concurrency)
	return nil
}

// Stop 停止引擎，之后不可再启动
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	if !e.started {
		return nil
	}
	e.started = false
	return e.app.Stop(ctx)
}

// Timeout 单次探测超时
func (e *Engine) Timeout() time.Duration {
	return e.opts.timeout
}

// Concurrency 并发上限
func (e *Engine) Concurrency() int {
	return e.opts.concurrency
}

// Prober 返回底层探测器
func (e *Engine) Prober() pkgif.Prober {
	return e.prober
}

// Metrics 返回指标记录器，未启用时为 nil
func (e *Engine) Metrics() *metrics.Recorder {
	return e.recorder
}

// Stats 返回最近一次运行的调度统计
func (e *Engine) Stats() scheduler.Stats {
	if e.scheduler == nil {
		return scheduler.Stats{}
	}
	return e.scheduler.Stats()
}

// RunAddresses 按输入顺序为地址分配 Index 后执行 Run
func (e *Engine) RunAddresses(ctx context.Context, addrs []string, extra ...pkgif.SampleObserver) (*types.Report, error) {
	return e.Run(ctx, types.NewCandidates(addrs), extra...)
}

// Run 探测全部候选并生成排序报告
//
// 输入非法时在任何探测开始前返回错误且报告为 nil。ctx 被取消时同时返回
// 完整报告（未完成的候选记为 Failure(Cancelled)）与 ctx 错误。
// extra 仅对本次运行生效。
func (e *Engine) Run(ctx context.Context, candidates []types.Candidate, extra ...pkgif.SampleObserver) (*types.Report, error) {
	e.mu.Lock()
	started, closed := e.started, e.closed
	e.mu.Unlock()
	if closed {
		return nil, ErrEngineClosed
	}
	if !started {
		return nil, ErrNotStarted
	}

	collector := aggregator.NewCollector(len(candidates))
	observers := append([]pkgif.SampleObserver{collector}, extra...)

	if e.recorder != nil {
		e.recorder.RunStarted()
	}

	startedAt := e.clock.Now()
	samples, runErr := e.scheduler.Run(ctx, candidates, e.opts.timeout, e.opts.concurrency, observers...)
	if samples == nil {
		return nil, runErr
	}
	finishedAt := e.clock.Now()

	report, err := collector.Build(aggregator.Meta{
		StartedAt:   startedAt,
		FinishedAt:  finishedAt,
		Timeout:     e.opts.timeout,
		Concurrency: e.opts.concurrency,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	best, ok := report.Best()
	if ok {
		logger.Info("run complete",
			"runID", report.RunID,
			"candidates", len(report.Entries),
			"best", best.Candidate.Address,
			"latency", best.Latency)
	} else {
		logger.Warn("run complete without any reachable candidate",
			"runID", report.RunID,
			"candidates", len(report.Entries))
	}
	return report, runErr
}
