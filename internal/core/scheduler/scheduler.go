package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/dep2p/go-cdnopt/internal/core/governor"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("scheduler")

// ============================================================================
//                              Scheduler 实现
// ============================================================================

// Scheduler 探测调度器
type Scheduler struct {
	config    Config
	prober    pkgif.Prober
	governors *governor.Factory

	observersMu sync.RWMutex
	observers   []pkgif.SampleObserver

	// 最近一次运行，供 Stats 读取
	current atomic.Pointer[run]
}

// New 创建调度器
func New(config Config, prober pkgif.Prober, governors *governor.Factory) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if prober == nil {
		return nil, fmt.Errorf("scheduler: nil prober")
	}
	if governors == nil {
		governors = governor.NewFactory(nil)
	}
	return &Scheduler{
		config:    config,
		prober:    prober,
		governors: governors,
	}, nil
}

// AddObserver 注册样本观察者
func (s *Scheduler) AddObserver(o pkgif.SampleObserver) {
	if o == nil {
		return
	}
	s.observersMu.Lock()
	s.observers = append(s.observers, o)
	s.observersMu.Unlock()
}

// Run 探测全部候选，返回按候选位置排列的样本
//
// 输入非法时在任何探测开始前返回错误。ctx 被取消时返回完整样本
// （未完成的记为 Failure(Cancelled)）以及 ctx 错误。
// extra 为仅本次运行生效的观察者，在已注册的观察者之后收到样本。
func (s *Scheduler) Run(ctx context.Context, candidates []types.Candidate, timeout time.Duration, limit int, extra ...pkgif.SampleObserver) ([]types.Sample, error) {
	if err := validateRun(candidates, timeout, limit, s.config.DefaultPort); err != nil {
		return nil, err
	}

	gov, err := s.governors.New(timeout)
	if err != nil {
		return nil, err
	}

	pool, err := ants.NewPool(limit, ants.WithPanicHandler(func(p any) {
		logger.Error("probe task panicked", "panic", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("scheduler: create worker pool: %w", err)
	}
	defer pool.Release()

	observers := s.sampleObservers(extra)
	r := newRun(len(candidates), inFlightObservers(observers))
	s.current.Store(r)

	logger.Info("run started",
		"candidates", len(candidates),
		"timeout", timeout,
		"concurrency", limit,
		"rate", s.config.DispatchRate)
	start := time.Now()

	sem := semaphore.NewWeighted(int64(limit))
	limiter := s.newLimiter()
	results := make([]types.Sample, len(candidates))

	var wg sync.WaitGroup
	next := 0
	var runErr error

	for ; next < len(candidates); next++ {
		i, c := next, candidates[next]

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				runErr = err
				break
			}
		}
		// 许可池满时在此阻塞
		if err := sem.Acquire(ctx, 1); err != nil {
			runErr = err
			break
		}

		if err := r.dispatch(i); err != nil {
			sem.Release(1)
			logger.Error("dispatch rejected", "addr", c.Address, "err", err)
			runErr = err
			break
		}

		wg.Add(1)
		task := func() {
			defer wg.Done()
			defer sem.Release(1)

			sample := gov.Run(ctx, c, s.prober)
			results[i] = sample
			r.complete(i, sample)

			for _, o := range observers {
				o.Observe(sample)
			}
		}
		if err := pool.Submit(task); err != nil {
			logger.Warn("worker pool rejected task, running inline goroutine", "err", err)
			go task()
		}
	}

	wg.Wait()

	// 未派发的候选直接记为取消
	if next < len(candidates) {
		cause := ctx.Err()
		if cause == nil {
			cause = runErr
		}
		for i := next; i < len(candidates); i++ {
			sample := types.Failure(candidates[i], types.ReasonCancelled, 0, cause)
			r.abandon(i, sample)
			results[i] = sample
			for _, o := range observers {
				o.Observe(sample)
			}
		}
	}

	if runErr == nil && ctx.Err() != nil && anyCancelled(results) {
		runErr = ctx.Err()
	}

	stats := r.stats()
	logger.Info("run finished",
		"candidates", stats.Total,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"timedOut", stats.TimedOut,
		"peakInFlight", stats.PeakInFlight,
		"elapsed", time.Since(start))

	if runErr != nil {
		return results, fmt.Errorf("scheduler: run aborted: %w", runErr)
	}
	return results, nil
}

// Stats 返回最近一次运行的统计
func (s *Scheduler) Stats() Stats {
	r := s.current.Load()
	if r == nil {
		return Stats{}
	}
	return r.stats()
}

func anyCancelled(samples []types.Sample) bool {
	for _, s := range samples {
		if s.Outcome == types.OutcomeFailure && s.Reason == types.ReasonCancelled {
			return true
		}
	}
	return false
}

func (s *Scheduler) newLimiter() *rate.Limiter {
	if s.config.DispatchRate <= 0 {
		return nil
	}
	burst := s.config.DispatchBurst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.config.DispatchRate), burst)
}

func (s *Scheduler) sampleObservers(extra []pkgif.SampleObserver) []pkgif.SampleObserver {
	s.observersMu.RLock()
	out := append([]pkgif.SampleObserver(nil), s.observers...)
	s.observersMu.RUnlock()

	for _, o := range extra {
		if o != nil {
			out = append(out, o)
		}
	}
	return out
}

func inFlightObservers(observers []pkgif.SampleObserver) []pkgif.InFlightObserver {
	var out []pkgif.InFlightObserver
	for _, o := range observers {
		if f, ok := o.(pkgif.InFlightObserver); ok {
			out = append(out, f)
		}
	}
	return out
}

// ============================================================================
//                              run 运行状态
// ============================================================================

// Stats 运行统计
type Stats struct {
	Total        int
	Dispatched   int
	Completed    int
	InFlight     int
	PeakInFlight int
	Succeeded    int
	Failed       int
	TimedOut     int
}

// run 单次运行的状态
type run struct {
	tracker  *tracker
	watchers []pkgif.InFlightObserver

	// 在途计数的变更与通知在同一临界区内完成，观察者看到的值按变更顺序到达
	publishMu sync.Mutex

	inFlight   atomic.Int64
	peak       atomic.Int64
	dispatched atomic.Int64
	completed  atomic.Int64
}

func newRun(n int, watchers []pkgif.InFlightObserver) *run {
	return &run{tracker: newTracker(n), watchers: watchers}
}

// dispatch 已持有许可后调用
func (r *run) dispatch(i int) error {
	if err := r.tracker.begin(i); err != nil {
		return err
	}
	r.dispatched.Add(1)
	r.adjustInFlight(1)
	return nil
}

// complete 在归还许可之前调用
func (r *run) complete(i int, s types.Sample) {
	if err := r.tracker.finish(i, s.Outcome); err != nil {
		logger.Error("state transition rejected", "addr", s.Candidate.Address, "err", err)
	}
	r.completed.Add(1)
	r.adjustInFlight(-1)
}

// abandon 记录从未派发的候选
func (r *run) abandon(i int, s types.Sample) {
	if err := r.tracker.begin(i); err == nil {
		err = r.tracker.finish(i, s.Outcome)
		if err != nil {
			logger.Error("state transition rejected", "addr", s.Candidate.Address, "err", err)
		}
	}
	r.completed.Add(1)
}

func (r *run) adjustInFlight(delta int64) {
	r.publishMu.Lock()
	defer r.publishMu.Unlock()

	n := r.inFlight.Add(delta)
	if n > r.peak.Load() {
		r.peak.Store(n)
	}
	for _, w := range r.watchers {
		w.SetInFlight(int(n))
	}
}

func (r *run) stats() Stats {
	counts := r.tracker.counts()
	return Stats{
		Total:        len(r.tracker.states),
		Dispatched:   int(r.dispatched.Load()),
		Completed:    int(r.completed.Load()),
		InFlight:     int(r.inFlight.Load()),
		PeakInFlight: int(r.peak.Load()),
		Succeeded:    counts[StateSucceeded],
		Failed:       counts[StateFailed],
		TimedOut:     counts[StateTimedOut],
	}
}
