package config

import (
	"github.com/pbnjay/memory"
)

// ============================================================================
//                              按内存推算并发
// ============================================================================

const (
	// perProbeMemory 单个在途探测的内存估算（套接字缓冲、TLS/QUIC 状态、goroutine 栈）
	perProbeMemory = 256 << 10

	// probeMemoryShare 探测可使用的内存比例（1/64）
	probeMemoryShare = 64

	minAutoConcurrency = 16
	maxAutoConcurrency = 1024
)

// SuggestConcurrency 按物理内存总量推算并发上限
//
// 取内存的 1/64 作为探测预算，结果限制在 [16, 1024]；total 为 0（无法获取）
// 时返回 DefaultConcurrency。
func SuggestConcurrency(total uint64) int {
	if total == 0 {
		return DefaultConcurrency
	}
	n := total / probeMemoryShare / perProbeMemory
	switch {
	case n < minAutoConcurrency:
		return minAutoConcurrency
	case n > maxAutoConcurrency:
		return maxAutoConcurrency
	}
	return int(n)
}

// AutoConcurrency 按本机物理内存推算并发上限
func AutoConcurrency() int {
	return SuggestConcurrency(memory.TotalMemory())
}
