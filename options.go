package cdnopt

import (
	"fmt"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	"github.com/dep2p/go-cdnopt/config"
	"github.com/dep2p/go-cdnopt/internal/core/probe"
	"github.com/dep2p/go-cdnopt/internal/core/scheduler"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
)

// Option 用户配置选项函数
type Option func(*options) error

// options 内部选项结构
type options struct {
	// 运行参数（无默认值，必须显式设置）
	timeout     time.Duration
	concurrency int

	// 组件配置
	probe     probe.Config
	scheduler scheduler.Config

	// 观察者
	observers []pkgif.SampleObserver

	// 指标
	metrics struct {
		enable     bool
		registerer prometheus.Registerer
		textfile   string
	}

	// 时钟（测试注入）
	clock clock.Clock

	// 输出 Fx 事件日志
	fxEvents bool

	// 用户自定义 Fx 选项
	userFxOptions []fx.Option
}

// newOptions 创建默认选项
func newOptions() *options {
	return &options{
		probe:     probe.DefaultConfig(),
		scheduler: scheduler.DefaultConfig(),
	}
}

// validate 检查运行参数
func (o *options) validate() error {
	if o.timeout <= 0 {
		return fmt.Errorf("%w: %s（请使用 WithTimeout 设置）", ErrInvalidTimeout, o.timeout)
	}
	if o.concurrency <= 0 {
		return fmt.Errorf("%w: %d（请使用 WithConcurrency 设置）", ErrInvalidConcurrency, o.concurrency)
	}
	if err := o.probe.Validate(); err != nil {
		return fmt.Errorf("探测配置无效: %w", err)
	}
	if err := o.scheduler.Validate(); err != nil {
		return fmt.Errorf("调度配置无效: %w", err)
	}
	return nil
}

// ============================================================================
//                              运行参数
// ============================================================================

// WithTimeout 设置单次探测超时
//
// 引擎没有默认超时，调用方必须显式提供（命令行默认 3s）。
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidTimeout, d)
		}
		o.timeout = d
		return nil
	}
}

// WithConcurrency 设置并发上限
func WithConcurrency(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", ErrInvalidConcurrency, n)
		}
		o.concurrency = n
		return nil
	}
}

// WithDispatchRate 限制每秒新建的探测数
//
// perSecond=0 表示不限速；burst<=0 时取 1。
func WithDispatchRate(perSecond float64, burst int) Option {
	return func(o *options) error {
		if perSecond < 0 {
			return fmt.Errorf("无效的派发速率: %v", perSecond)
		}
		o.scheduler.DispatchRate = perSecond
		o.scheduler.DispatchBurst = burst
		return nil
	}
}

// ============================================================================
//                              探测选项
// ============================================================================

// WithNetwork 设置探测方式：tcp、tls 或 quic
func WithNetwork(network string) Option {
	return func(o *options) error {
		n, err := probe.ParseNetwork(strings.ToLower(network))
		if err != nil {
			return err
		}
		o.probe.Network = n
		return nil
	}
}

// WithPort 设置候选未带端口时使用的端口
func WithPort(port int) Option {
	return func(o *options) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("无效的端口号: %d", port)
		}
		o.probe.Port = port
		return nil
	}
}

// WithTLS 设置 TLS/QUIC 握手参数
//
// serverName 为空时使用候选 IP；insecure 跳过证书校验。
func WithTLS(serverName string, insecure bool, alpn ...string) Option {
	return func(o *options) error {
		o.probe.ServerName = serverName
		o.probe.InsecureSkipVerify = insecure
		o.probe.ALPN = append([]string(nil), alpn...)
		return nil
	}
}

// WithQUICHandshakeIdleTimeout 设置 QUIC 握手空闲超时
func WithQUICHandshakeIdleTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return fmt.Errorf("QUIC 握手空闲超时不能为负数: %s", d)
		}
		o.probe.QUICHandshakeIdleTimeout = d
		return nil
	}
}

// ============================================================================
//                              观察与指标
// ============================================================================

// WithObserver 注册样本观察者，对引擎的每次运行生效
func WithObserver(obs pkgif.SampleObserver) Option {
	return func(o *options) error {
		if obs == nil {
			return fmt.Errorf("观察者不能为空")
		}
		o.observers = append(o.observers, obs)
		return nil
	}
}

// WithMetrics 启用 Prometheus 指标
//
// reg 为 nil 时使用私有 Registry。
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.metrics.enable = true
		o.metrics.registerer = reg
		return nil
	}
}

// WithMetricsTextfile 启用指标并在引擎停止时写入 textfile
func WithMetricsTextfile(path string) Option {
	return func(o *options) error {
		if path == "" {
			return fmt.Errorf("指标文件路径不能为空")
		}
		o.metrics.enable = true
		o.metrics.textfile = path
		return nil
	}
}

// ============================================================================
//                              高级选项
// ============================================================================

// WithClock 注入时钟，用于测试
func WithClock(clk clock.Clock) Option {
	return func(o *options) error {
		o.clock = clk
		return nil
	}
}

// WithFxEvents 输出 Fx 依赖注入事件日志
func WithFxEvents(enable bool) Option {
	return func(o *options) error {
		o.fxEvents = enable
		return nil
	}
}

// WithFxOptions 追加自定义 Fx 选项
func WithFxOptions(opts ...fx.Option) Option {
	return func(o *options) error {
		o.userFxOptions = append(o.userFxOptions, opts...)
		return nil
	}
}

// WithConfig 从统一配置设置所有参数
//
// 后续的 Option 可以覆盖其中的值。探测端口为 0 时保持默认值。
func WithConfig(cfg *config.Config) Option {
	return func(o *options) error {
		if cfg == nil {
			return fmt.Errorf("配置不能为空")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("配置校验失败: %w", err)
		}

		o.timeout = cfg.Scheduler.Timeout.Duration()
		o.concurrency = cfg.Scheduler.Concurrency
		o.scheduler.DispatchRate = cfg.Scheduler.DispatchRate
		o.scheduler.DispatchBurst = cfg.Scheduler.DispatchBurst

		if cfg.Probe.Network != "" {
			n, err := probe.ParseNetwork(strings.ToLower(cfg.Probe.Network))
			if err != nil {
				return err
			}
			o.probe.Network = n
		}
		if cfg.Probe.Port > 0 {
			o.probe.Port = cfg.Probe.Port
		}
		o.probe.ServerName = cfg.Probe.ServerName
		o.probe.InsecureSkipVerify = cfg.Probe.InsecureSkipVerify
		o.probe.ALPN = append([]string(nil), cfg.Probe.ALPN...)
		o.probe.QUICHandshakeIdleTimeout = cfg.Probe.QUICHandshakeIdleTimeout.Duration()

		if cfg.Metrics.Enabled() {
			o.metrics.enable = true
			o.metrics.textfile = cfg.Metrics.Textfile
		}
		return nil
	}
}
