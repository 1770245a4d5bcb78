package interfaces

import "github.com/dep2p/go-cdnopt/pkg/types"

// SampleObserver 接收每个完成的样本
//
// Observe 会被多个探测 goroutine 并发调用，实现需自行保证并发安全，
// 且不应阻塞。
type SampleObserver interface {
	Observe(s types.Sample)
}

// ObserverFunc 函数适配器
type ObserverFunc func(s types.Sample)

// Observe 实现 SampleObserver
func (f ObserverFunc) Observe(s types.Sample) {
	f(s)
}

// InFlightObserver 可选接口：接收在途探测数变化
type InFlightObserver interface {
	SetInFlight(n int)
}
