package interfaces

import (
	"context"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// Prober 对单个候选执行一次连通性探测
//
// 实现必须在 ctx 取消时中止进行中的连接尝试并释放套接字，
// 不得自行重试。
type Prober interface {
	Probe(ctx context.Context, c types.Candidate) types.Attempt
}

// ProberFunc 函数适配器
type ProberFunc func(ctx context.Context, c types.Candidate) types.Attempt

// Probe 实现 Prober
func (f ProberFunc) Probe(ctx context.Context, c types.Candidate) types.Attempt {
	return f(ctx, c)
}
