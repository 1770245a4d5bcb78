package scheduler

import (
	"go.uber.org/fx"

	"github.com/dep2p/go-cdnopt/internal/core/governor"
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Prober    pkgif.Prober
	Governors *governor.Factory

	Config    *Config                `optional:"true"`
	Observers []pkgif.SampleObserver `group:"sample_observers"`
}

// ModuleOutput 模块输出服务
type ModuleOutput struct {
	fx.Out

	Scheduler *Scheduler
}

// ProvideServices 提供调度器
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	config := DefaultConfig()
	if input.Config != nil {
		config = *input.Config
	}

	s, err := New(config, input.Prober, input.Governors)
	if err != nil {
		return ModuleOutput{}, err
	}
	for _, o := range input.Observers {
		s.AddObserver(o)
	}

	logger.Debug("scheduler ready",
		"rate", config.DispatchRate,
		"observers", len(input.Observers))
	return ModuleOutput{Scheduler: s}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("scheduler",
		fx.Provide(ProvideServices),
	)
}
