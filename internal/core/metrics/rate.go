package metrics

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// ============================================================================
// RateMeter - 速率计算器
// ============================================================================

// rateBuckets 窗口内 1 秒桶的数量
const rateBuckets = 60

// RateMeter 事件速率计算器（基于滑动窗口）
//
// 使用 60 个 1 秒桶计算最近 60 秒内的平均每秒事件数。
type RateMeter struct {
	mu       sync.Mutex
	clock    clock.Clock
	buckets  [rateBuckets]int64
	lastIdx  int
	lastTime time.Time
	started  time.Time
}

// NewRateMeter 创建速率计算器
func NewRateMeter(clk clock.Clock) *RateMeter {
	if clk == nil {
		clk = clock.New()
	}
	now := clk.Now()
	return &RateMeter{clock: clk, lastTime: now, started: now}
}

// Mark 记录 n 个事件
func (r *RateMeter) Mark(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()
	r.buckets[r.lastIdx] += n
}

// Rate 返回平均速率（事件/秒）
//
// 运行不足一个窗口时按已运行时长计算。
func (r *RateMeter) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.advance()

	var total int64
	for _, v := range r.buckets {
		total += v
	}

	span := r.clock.Since(r.started).Seconds()
	if span > rateBuckets {
		span = rateBuckets
	}
	if span < 1 {
		span = 1
	}
	return float64(total) / span
}

// Reset 重置
func (r *RateMeter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buckets = [rateBuckets]int64{}
	r.lastIdx = 0
	r.lastTime = r.clock.Now()
	r.started = r.lastTime
}

// advance 移动到当前时间所在的桶，清空跳过的桶
func (r *RateMeter) advance() {
	now := r.clock.Now()
	elapsed := now.Sub(r.lastTime)
	if elapsed < time.Second {
		return
	}

	seconds := int(elapsed / time.Second)
	if seconds >= rateBuckets {
		r.buckets = [rateBuckets]int64{}
		r.lastIdx = 0
	} else {
		for i := 0; i < seconds; i++ {
			r.lastIdx = (r.lastIdx + 1) % rateBuckets
			r.buckets[r.lastIdx] = 0
		}
	}
	r.lastTime = r.lastTime.Add(time.Duration(seconds) * time.Second)
}
