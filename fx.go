package cdnopt

import (
	"context"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/dep2p/go-cdnopt/internal/core/governor"
	"github.com/dep2p/go-cdnopt/internal/core/metrics"
	"github.com/dep2p/go-cdnopt/internal/core/probe"
	"github.com/dep2p/go-cdnopt/internal/core/scheduler"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
	"github.com/dep2p/go-cdnopt/pkg/lib/log"
)

var fxLogger = log.Logger("cdnopt/fx")

// buildFxApp 构建 Fx 应用
//
// 加载顺序（按依赖）：
//  1. 配置注入：probe.Config、scheduler.Config、可选时钟
//  2. Probe → Governor → Scheduler
//  3. Metrics（条件加载），Recorder 加入调度器观察者组
//  4. 用户观察者与自定义 Fx 选项
func buildFxApp(o *options, e *Engine) (*fx.App, error) {
	// ════════════════════════════════════════════════════════════════════════
	// 1. 配置注入
	// ════════════════════════════════════════════════════════════════════════
	probeConfig := o.probe
	schedConfig := o.scheduler
	schedConfig.DefaultPort = probeConfig.Port

	modules := []fx.Option{
		fx.Supply(&probeConfig),
		fx.Supply(&schedConfig),
	}
	if o.clock != nil {
		clk := o.clock
		modules = append(modules, fx.Provide(func() clock.Clock { return clk }))
	}

	// ════════════════════════════════════════════════════════════════════════
	// 2. 核心模块
	// ════════════════════════════════════════════════════════════════════════
	modules = append(modules,
		probe.Module(),     // 连接尝试
		governor.Module(),  // 超时治理
		scheduler.Module(), // 调度
	)

	// ════════════════════════════════════════════════════════════════════════
	// 3. 指标（条件加载）
	// ════════════════════════════════════════════════════════════════════════
	if o.metrics.enable {
		metricsConfig := metrics.DefaultConfig()
		modules = append(modules, fx.Supply(&metricsConfig))
		if reg := o.metrics.registerer; reg != nil {
			modules = append(modules, fx.Provide(func() prometheus.Registerer { return reg }))
		}
		modules = append(modules, metrics.Module())
		if o.metrics.textfile != "" {
			modules = append(modules, fx.Invoke(writeTextfileOnStop(o.metrics.textfile)))
		}
	}

	// ════════════════════════════════════════════════════════════════════════
	// 4. 用户扩展
	// ════════════════════════════════════════════════════════════════════════
	for _, obs := range o.observers {
		obs := obs
		modules = append(modules, fx.Provide(fx.Annotate(
			func() pkgif.SampleObserver { return obs },
			fx.ResultTags(`group:"sample_observers"`),
		)))
	}
	if len(o.userFxOptions) > 0 {
		modules = append(modules, o.userFxOptions...)
	}

	modules = append(modules,
		fx.Invoke(injectEngineComponents(e)),
		fx.WithLogger(fxEventLogger(o.fxEvents)),
	)

	app := fx.New(modules...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return app, nil
}

func fxEventLogger(enable bool) func() fxevent.Logger {
	return func() fxevent.Logger {
		if !enable {
			return &fxevent.ZapLogger{Logger: zap.NewNop()}
		}
		l, err := zap.NewDevelopment()
		if err != nil {
			return fxevent.NopLogger
		}
		return &fxevent.ZapLogger{Logger: l}
	}
}

// engineInjectParams 引擎组件注入参数
type engineInjectParams struct {
	fx.In

	Scheduler *scheduler.Scheduler
	Prober    pkgif.Prober
	Governors *governor.Factory

	Recorder *metrics.Recorder `optional:"true"`
}

// injectEngineComponents 将 Fx 构建的组件注入 Engine
func injectEngineComponents(e *Engine) func(engineInjectParams) {
	return func(p engineInjectParams) {
		e.scheduler = p.Scheduler
		e.prober = p.Prober
		e.clock = p.Governors.Clock()
		e.recorder = p.Recorder

		fxLogger.Debug("engine components injected",
			"metrics", p.Recorder != nil)
	}
}

// writeTextfileOnStop 引擎停止时写出指标
func writeTextfileOnStop(path string) func(fx.Lifecycle, *metrics.Recorder) {
	return func(lc fx.Lifecycle, r *metrics.Recorder) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				return r.WriteTextfile(path)
			},
		})
	}
}
