package metrics

import (
	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config     *Config               `optional:"true"`
	Registerer prometheus.Registerer `optional:"true"`
	Clock      clock.Clock           `optional:"true"`
}

// ModuleOutput 模块输出服务
type ModuleOutput struct {
	fx.Out

	Recorder *Recorder
	Reporter Reporter
	Observer pkgif.SampleObserver `group:"sample_observers"`
}

// ProvideServices 提供指标记录器，并将其加入调度器观察者组
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	config := DefaultConfig()
	if input.Config != nil {
		config = *input.Config
	}

	r, err := NewRecorder(config, input.Registerer, input.Clock)
	if err != nil {
		return ModuleOutput{}, err
	}
	return ModuleOutput{Recorder: r, Reporter: r, Observer: r}, nil
}

// Module 返回 fx 模块配置
//
// 调用方根据 Config.Enabled 决定是否装配本模块。
func Module() fx.Option {
	return fx.Module("metrics",
		fx.Provide(ProvideServices),
	)
}
