package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// SnapshotLogger 周期性输出 Recorder 快照
type SnapshotLogger struct {
	mu     sync.Mutex
	source Reporter
	clock  clock.Clock
	total  int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSnapshotLogger 创建快照日志器，total 为本次运行的候选数（0 表示未知）
func NewSnapshotLogger(source Reporter, clk clock.Clock, total int) *SnapshotLogger {
	if clk == nil {
		clk = clock.New()
	}
	return &SnapshotLogger{source: source, clock: clk, total: total}
}

// Start 启动周期性快照
func (l *SnapshotLogger) Start(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return // 已经启动
	}
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.mu.Unlock()

	ticker := l.clock.Ticker(interval)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Log()
			}
		}
	}()
}

// Stop 停止快照并输出最后一次
func (l *SnapshotLogger) Stop() {
	l.mu.Lock()
	cancel := l.cancel
	l.cancel = nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	l.wg.Wait()
	l.Log()
}

// Log 立即输出一次快照
func (l *SnapshotLogger) Log() Stats {
	s := l.source.Snapshot()
	args := []any{
		"completed", s.Completed,
		"succeeded", s.Succeeded,
		"failed", s.Failed,
		"timedOut", s.TimedOut,
		"inFlight", s.InFlight,
		"perSecond", s.Rate,
	}
	if l.total > 0 {
		args = append(args, "total", l.total)
	}
	logger.Info("probe progress", args...)
	return s
}
