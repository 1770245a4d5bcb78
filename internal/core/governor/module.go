package governor

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
)

// ModuleInput 模块输入依赖
type ModuleInput struct {
	fx.In

	Clock clock.Clock `optional:"true"`
}

// ProvideFactory 提供 Governor 工厂
func ProvideFactory(input ModuleInput) *Factory {
	return NewFactory(input.Clock)
}

// Module 返回 fx 模块配置
func Module() fx.Option {
	return fx.Module("governor",
		fx.Provide(ProvideFactory),
	)
}
