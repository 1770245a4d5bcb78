package cdnopt

import (
	"context"
	"errors"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// Run 创建临时引擎，探测 addrs 后关闭
//
// 适合一次性调用；多次运行请使用 New 创建的 Engine。
func Run(ctx context.Context, addrs []string, opts ...Option) (report *types.Report, err error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, e.Stop(context.Background()))
	}()

	return e.RunAddresses(ctx, addrs)
}
