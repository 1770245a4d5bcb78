package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/dep2p/go-cdnopt/internal/core/governor"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

// ============================================================================
//                              测试辅助
// ============================================================================

// widthProber 记录同时在途的探测数
type widthProber struct {
	cur   atomic.Int64
	max   atomic.Int64
	calls atomic.Int64
	hold  time.Duration
}

func (p *widthProber) Probe(ctx context.Context, _ types.Candidate) types.Attempt {
	p.calls.Add(1)
	n := p.cur.Add(1)
	defer p.cur.Add(-1)
	for {
		m := p.max.Load()
		if n <= m || p.max.CompareAndSwap(m, n) {
			break
		}
	}
	if p.hold > 0 {
		time.Sleep(p.hold)
	}
	return types.Attempt{Latency: time.Millisecond}
}

// scripted 按地址返回固定结果
func scripted() pkgif.Prober {
	return pkgif.ProberFunc(func(ctx context.Context, c types.Candidate) types.Attempt {
		ip, _, _ := types.ParseAddress(c.Address)
		last := int(ip.As4()[3])
		switch last % 3 {
		case 0:
			return types.Attempt{Latency: time.Duration(last) * time.Millisecond}
		case 1:
			return types.Attempt{Latency: time.Millisecond, Err: syscall.ECONNREFUSED}
		default:
			// 成功但超过超时值
			return types.Attempt{Latency: 10 * time.Second}
		}
	})
}

// blockUntilCancel 阻塞到 ctx 结束
func blockUntilCancel(started chan<- struct{}) pkgif.Prober {
	return pkgif.ProberFunc(func(ctx context.Context, _ types.Candidate) types.Attempt {
		if started != nil {
			started <- struct{}{}
		}
		<-ctx.Done()
		return types.Attempt{Err: ctx.Err()}
	})
}

func candidates(n int) []types.Candidate {
	addrs := make([]string, n)
	for i := range addrs {
		addrs[i] = fmt.Sprintf("192.0.2.%d", i+1)
	}
	return types.NewCandidates(addrs)
}

func newScheduler(t *testing.T, cfg Config, p pkgif.Prober) *Scheduler {
	t.Helper()
	s, err := New(cfg, p, governor.NewFactory(nil))
	require.NoError(t, err)
	return s
}

// ============================================================================
//                              测试用例
// ============================================================================

func TestNew_Validation(t *testing.T) {
	_, err := New(DefaultConfig(), nil, nil)
	assert.Error(t, err)

	_, err = New(Config{DispatchRate: -1}, scripted(), nil)
	assert.Error(t, err)

	s, err := New(DefaultConfig(), scripted(), nil)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestRun_OneSamplePerCandidate(t *testing.T) {
	s := newScheduler(t, DefaultConfig(), scripted())
	cands := candidates(30)

	samples, err := s.Run(context.Background(), cands, time.Second, 8)
	require.NoError(t, err)
	require.Len(t, samples, len(cands))

	for i, sample := range samples {
		assert.Equal(t, cands[i], sample.Candidate, "position %d", i)
		if sample.OK() {
			assert.GreaterOrEqual(t, sample.Latency, time.Duration(0))
			assert.LessOrEqual(t, sample.Latency, time.Second)
		}
	}

	stats := s.Stats()
	assert.Equal(t, 30, stats.Total)
	assert.Equal(t, 30, stats.Dispatched)
	assert.Equal(t, 30, stats.Completed)
	assert.Zero(t, stats.InFlight)
	assert.Equal(t, 10, stats.Succeeded)
	assert.Equal(t, 10, stats.Failed)
	assert.Equal(t, 10, stats.TimedOut)
	t.Log("✅ 每个候选恰好一个样本")
}

func TestRun_LimitOneNeverOverlaps(t *testing.T) {
	p := &widthProber{hold: 100 * time.Microsecond}
	s := newScheduler(t, DefaultConfig(), p)

	samples, err := s.Run(context.Background(), candidates(100), time.Second, 1)
	require.NoError(t, err)
	assert.Len(t, samples, 100)
	assert.EqualValues(t, 100, p.calls.Load())
	assert.EqualValues(t, 1, p.max.Load())
	assert.Equal(t, 1, s.Stats().PeakInFlight)
	t.Log("✅ 并发上限为 1 时从不重叠")
}

func TestRun_RespectsLimit(t *testing.T) {
	p := &widthProber{hold: 2 * time.Millisecond}
	s := newScheduler(t, DefaultConfig(), p)

	_, err := s.Run(context.Background(), candidates(60), time.Second, 5)
	require.NoError(t, err)
	assert.LessOrEqual(t, p.max.Load(), int64(5))
	assert.LessOrEqual(t, s.Stats().PeakInFlight, 5)
	assert.GreaterOrEqual(t, s.Stats().PeakInFlight, 1)
}

func TestRun_WidthIndependent(t *testing.T) {
	cands := candidates(40)

	var baseline []types.Sample
	for _, limit := range []int{1, 3, 16, 100} {
		s := newScheduler(t, DefaultConfig(), scripted())
		samples, err := s.Run(context.Background(), cands, time.Second, limit)
		require.NoError(t, err)

		if baseline == nil {
			baseline = samples
			continue
		}
		assert.Equal(t, baseline, samples, "limit %d", limit)
	}
}

func TestRun_InvalidInputProbesNothing(t *testing.T) {
	p := &widthProber{}
	s := newScheduler(t, DefaultConfig(), p)

	_, err := s.Run(context.Background(), nil, time.Second, 4)
	assert.ErrorIs(t, err, types.ErrEmptyCandidates)

	_, err = s.Run(context.Background(), candidates(3), 0, 4)
	assert.ErrorIs(t, err, types.ErrInvalidTimeout)

	_, err = s.Run(context.Background(), candidates(3), time.Second, 0)
	assert.ErrorIs(t, err, types.ErrInvalidConcurrency)

	dup := types.NewCandidates([]string{"192.0.2.1", "192.0.2.1"})
	_, err = s.Run(context.Background(), dup, time.Second, 4)
	assert.ErrorIs(t, err, types.ErrDuplicateCandidate)

	assert.Zero(t, p.calls.Load())
}

func TestRun_SlowProbesTimeOut(t *testing.T) {
	s := newScheduler(t, DefaultConfig(), blockUntilCancel(nil))
	timeout := 20 * time.Millisecond

	start := time.Now()
	samples, err := s.Run(context.Background(), candidates(6), timeout, 6)
	require.NoError(t, err)

	for _, sample := range samples {
		assert.Equal(t, types.OutcomeTimeout, sample.Outcome)
		assert.Equal(t, timeout, sample.Latency)
	}
	// 各探测独立计时，并行超时
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 6, s.Stats().TimedOut)
}

func TestRun_ParentCancel(t *testing.T) {
	started := make(chan struct{}, 10)
	s := newScheduler(t, DefaultConfig(), blockUntilCancel(started))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-started
		<-started
		cancel()
	}()

	cands := candidates(5)
	samples, err := s.Run(ctx, cands, time.Minute, 2)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, samples, 5)

	for i, sample := range samples {
		assert.Equal(t, cands[i], sample.Candidate)
		assert.Equal(t, types.OutcomeFailure, sample.Outcome)
		assert.Equal(t, types.ReasonCancelled, sample.Reason)
	}

	stats := s.Stats()
	assert.Equal(t, 5, stats.Completed)
	assert.Equal(t, 5, stats.Failed)
	assert.Zero(t, stats.InFlight)
	t.Log("✅ 外部取消后所有候选记为 Cancelled")
}

func TestRun_DispatchRate(t *testing.T) {
	p := &widthProber{}
	s := newScheduler(t, Config{DispatchRate: 20, DispatchBurst: 1}, p)

	start := time.Now()
	_, err := s.Run(context.Background(), candidates(5), time.Second, 5)
	require.NoError(t, err)

	// 首个令牌立即可用，其余每 50ms 一个
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

// recorder 同时实现 SampleObserver 与 InFlightObserver
type recorder struct {
	mu       sync.Mutex
	samples  []types.Sample
	maxSeen  int
	last     int
	negative bool
}

func (r *recorder) Observe(s types.Sample) {
	r.mu.Lock()
	r.samples = append(r.samples, s)
	r.mu.Unlock()
}

func (r *recorder) SetInFlight(n int) {
	r.mu.Lock()
	r.last = n
	if n > r.maxSeen {
		r.maxSeen = n
	}
	if n < 0 {
		r.negative = true
	}
	r.mu.Unlock()
}

func TestRun_Observers(t *testing.T) {
	s := newScheduler(t, DefaultConfig(), &widthProber{hold: time.Millisecond})
	rec := &recorder{}
	s.AddObserver(rec)
	s.AddObserver(nil)

	_, err := s.Run(context.Background(), candidates(25), time.Second, 4)
	require.NoError(t, err)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Len(t, rec.samples, 25)
	assert.LessOrEqual(t, rec.maxSeen, 4)
	assert.GreaterOrEqual(t, rec.maxSeen, 1)
	assert.False(t, rec.negative)
}

func TestModule(t *testing.T) {
	rec := &recorder{}
	var sched *Scheduler

	app := fxtest.New(t,
		fx.Provide(func() pkgif.Prober { return scripted() }),
		fx.Provide(fx.Annotate(
			func() pkgif.SampleObserver { return rec },
			fx.ResultTags(`group:"sample_observers"`),
		)),
		governor.Module(),
		Module(),
		fx.Populate(&sched),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, sched)
	samples, err := sched.Run(context.Background(), candidates(9), time.Second, 3)
	require.NoError(t, err)
	assert.Len(t, samples, 9)

	rec.mu.Lock()
	assert.Len(t, rec.samples, 9)
	rec.mu.Unlock()
	t.Log("✅ fx 模块装配成功")
}

func TestRun_PerRunObservers(t *testing.T) {
	s := newScheduler(t, DefaultConfig(), scripted())
	registered := &recorder{}
	s.AddObserver(registered)

	first := &recorder{}
	_, err := s.Run(context.Background(), candidates(4), time.Second, 2, first)
	require.NoError(t, err)

	second := &recorder{}
	_, err = s.Run(context.Background(), candidates(6), time.Second, 2, second, nil)
	require.NoError(t, err)

	assert.Len(t, first.samples, 4)
	assert.Len(t, second.samples, 6)
	assert.Len(t, registered.samples, 10)
}

func TestRun_PanickingProbeIsLocalFailure(t *testing.T) {
	p := pkgif.ProberFunc(func(_ context.Context, c types.Candidate) types.Attempt {
		if c.Index == 1 {
			panic("boom")
		}
		return types.Attempt{Latency: time.Millisecond}
	})
	s := newScheduler(t, DefaultConfig(), p)
	rec := &recorder{}

	samples, err := s.Run(context.Background(), candidates(3), time.Second, 2, rec)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.True(t, samples[0].OK())
	assert.Equal(t, types.OutcomeFailure, samples[1].Outcome)
	assert.Equal(t, types.ReasonUnknown, samples[1].Reason)
	assert.Contains(t, samples[1].Detail, "boom")
	assert.True(t, samples[2].OK())

	rec.mu.Lock()
	assert.Len(t, rec.samples, 3)
	rec.mu.Unlock()

	stats := s.Stats()
	assert.Equal(t, 3, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	t.Log("✅ 探测器 panic 只影响对应候选")
}

func TestRun_InFlightSettlesAtZero(t *testing.T) {
	s := newScheduler(t, DefaultConfig(), &widthProber{})

	for round := 0; round < 20; round++ {
		rec := &recorder{}
		_, err := s.Run(context.Background(), candidates(64), time.Second, 16, rec)
		require.NoError(t, err)

		rec.mu.Lock()
		assert.Equal(t, 0, rec.last, "round %d", round)
		rec.mu.Unlock()
	}
	t.Log("✅ 运行结束时在途数最后通知为 0")
}
