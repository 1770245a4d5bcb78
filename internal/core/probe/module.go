package probe

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"

	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Config *Config     `optional:"true"`
	Clock  clock.Clock `optional:"true"`
}

// ModuleOutput 模块输出服务
type ModuleOutput struct {
	fx.Out

	Prober pkgif.Prober
}

// ProvideServices 提供探测器
func ProvideServices(input ModuleInput) (ModuleOutput, error) {
	config := DefaultConfig()
	if input.Config != nil {
		config = *input.Config
	}

	p, err := New(config, input.Clock)
	if err != nil {
		return ModuleOutput{}, err
	}

	logger.Debug("prober ready", "network", config.Network, "port", config.Port)
	return ModuleOutput{Prober: p}, nil
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("probe",
		fx.Provide(ProvideServices),
	)
}
