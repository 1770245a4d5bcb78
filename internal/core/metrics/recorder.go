package metrics

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("core/metrics")

// ErrNoGatherer 注册器不支持采集
var ErrNoGatherer = errors.New("metrics registerer is not a gatherer")

// Config 指标配置
type Config struct {
	// Enabled 是否启用指标收集
	Enabled bool

	// Namespace 指标名前缀
	Namespace string

	// LatencyBuckets 延迟直方图桶（秒），为空时使用默认值
	LatencyBuckets []float64
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Enabled:   true,
		Namespace: "cdnopt",
	}
}

// Validate 验证配置
func (c Config) Validate() error {
	for i := 1; i < len(c.LatencyBuckets); i++ {
		if c.LatencyBuckets[i] <= c.LatencyBuckets[i-1] {
			return fmt.Errorf("latency buckets must be strictly increasing")
		}
	}
	return nil
}

// ============================================================================
//                              Recorder
// ============================================================================

// Recorder Prometheus 探测指标记录器
type Recorder struct {
	gatherer prometheus.Gatherer

	probes   *prometheus.CounterVec
	latency  prometheus.Histogram
	inFlight prometheus.Gauge
	runs     prometheus.Counter

	completed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
	timedOut  atomic.Int64
	current   atomic.Int64
	rate      *RateMeter
}

// NewRecorder 创建记录器并在 reg 上注册收集器
//
// reg 为 nil 时使用新的私有 Registry。
func NewRecorder(config Config, reg prometheus.Registerer, clk clock.Clock) (*Recorder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	buckets := config.LatencyBuckets
	if len(buckets) == 0 {
		buckets = prometheus.ExponentialBuckets(0.005, 2, 12)
	}

	r := &Recorder{
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "probes_total",
			Help:      "Completed probes by outcome and failure reason.",
		}, []string{"outcome", "reason"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "probe_latency_seconds",
			Help:      "Connection latency of successful probes.",
			Buckets:   buckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "probes_in_flight",
			Help:      "Probes currently holding a permit.",
		}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "runs_total",
			Help:      "Probe runs started.",
		}),
		rate: NewRateMeter(clk),
	}

	for _, c := range []prometheus.Collector{r.probes, r.latency, r.inFlight, r.runs} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		r.gatherer = g
	}
	return r, nil
}

// Observe 实现 interfaces.SampleObserver
func (r *Recorder) Observe(s types.Sample) {
	r.probes.WithLabelValues(s.Outcome.String(), s.Reason.String()).Inc()
	r.completed.Add(1)
	r.rate.Mark(1)

	switch s.Outcome {
	case types.OutcomeSuccess:
		r.succeeded.Add(1)
		r.latency.Observe(s.Latency.Seconds())
	case types.OutcomeFailure:
		r.failed.Add(1)
	case types.OutcomeTimeout:
		r.timedOut.Add(1)
	}
}

// SetInFlight 实现 interfaces.InFlightObserver
func (r *Recorder) SetInFlight(n int) {
	r.current.Store(int64(n))
	r.inFlight.Set(float64(n))
}

// RunStarted 记录一次运行开始
func (r *Recorder) RunStarted() {
	r.runs.Inc()
	r.rate.Reset()
}

// Snapshot 返回当前统计快照
func (r *Recorder) Snapshot() Stats {
	return Stats{
		Completed: r.completed.Load(),
		Succeeded: r.succeeded.Load(),
		Failed:    r.failed.Load(),
		TimedOut:  r.timedOut.Load(),
		InFlight:  r.current.Load(),
		Rate:      r.rate.Rate(),
	}
}

// WriteTextfile 将指标写入 textfile collector 文件
func (r *Recorder) WriteTextfile(path string) error {
	if r.gatherer == nil {
		return ErrNoGatherer
	}
	if err := prometheus.WriteToTextfile(path, r.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	logger.Debug("metrics written", "path", path)
	return nil
}
