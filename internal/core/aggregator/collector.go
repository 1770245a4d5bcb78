package aggregator

import (
	"fmt"
	"sync"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// Collector 并发收集样本的观察者
//
// 作为调度器的每次运行观察者使用，运行结束后调用 Build 生成报告。
type Collector struct {
	mu       sync.Mutex
	expected int
	samples  []types.Sample
}

// NewCollector 创建收集器，expected 为候选数量
func NewCollector(expected int) *Collector {
	return &Collector{
		expected: expected,
		samples:  make([]types.Sample, 0, expected),
	}
}

// Observe 实现 interfaces.SampleObserver
func (c *Collector) Observe(s types.Sample) {
	c.mu.Lock()
	c.samples = append(c.samples, s)
	c.mu.Unlock()
}

// Len 已收集的样本数
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.samples)
}

// Build 生成报告
func (c *Collector) Build(meta Meta) (*types.Report, error) {
	c.mu.Lock()
	samples := c.samples
	c.mu.Unlock()

	if len(samples) < c.expected {
		return nil, fmt.Errorf("%w: collected %d of %d", types.ErrMissingSample, len(samples), c.expected)
	}
	if len(samples) > c.expected {
		return nil, fmt.Errorf("%w: collected %d of %d", types.ErrDuplicateSample, len(samples), c.expected)
	}
	return AggregateRun(samples, meta)
}
