// Package aggregator 将探测样本归约为排序报告
//
// 排序规则是全序：成功（延迟升序）< 失败 < 超时，
// 同组内按候选原始位置排序。样本不会被丢弃或去重，
// 缺失或重复的候选视为上游的编程错误并返回错误。
package aggregator

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dep2p/go-cdnopt/pkg/lib/log"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

var logger = log.Logger("aggregator")

// Meta 报告的运行元数据
type Meta struct {
	// RunID 为空时自动生成
	RunID       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Timeout     time.Duration
	Concurrency int
}

// Aggregate 排序样本并生成报告
func Aggregate(samples []types.Sample) (*types.Report, error) {
	return AggregateRun(samples, Meta{})
}

// AggregateRun 排序样本并附加运行元数据
//
// samples 必须对 Index 0..len(samples)-1 各含一个样本，顺序不限。
func AggregateRun(samples []types.Sample, meta Meta) (*types.Report, error) {
	if err := checkComplete(samples); err != nil {
		return nil, err
	}

	entries := slices.Clone(samples)
	Sort(entries)

	runID := meta.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	report := &types.Report{
		RunID:       runID,
		StartedAt:   meta.StartedAt,
		FinishedAt:  meta.FinishedAt,
		Timeout:     meta.Timeout,
		Concurrency: meta.Concurrency,
		Entries:     entries,
	}

	counts := report.Counts()
	logger.Debug("report built",
		"runID", runID,
		"entries", len(entries),
		"success", counts.Success,
		"failure", counts.Failure,
		"timeout", counts.Timeout)
	return report, nil
}

// Compare 报告排序比较函数
func Compare(a, b types.Sample) int {
	if c := cmp.Compare(a.Outcome, b.Outcome); c != 0 {
		return c
	}
	if a.Outcome == types.OutcomeSuccess {
		if c := cmp.Compare(a.Latency, b.Latency); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Candidate.Index, b.Candidate.Index)
}

// Sort 原地排序样本
func Sort(samples []types.Sample) {
	slices.SortStableFunc(samples, Compare)
}

func checkComplete(samples []types.Sample) error {
	n := len(samples)
	seen := make([]bool, n)
	for _, s := range samples {
		i := s.Candidate.Index
		if i < 0 || i >= n {
			return fmt.Errorf("%w: index %d (%q) outside 0..%d", types.ErrMissingSample, i, s.Candidate.Address, n-1)
		}
		if seen[i] {
			return fmt.Errorf("%w: index %d (%q)", types.ErrDuplicateSample, i, s.Candidate.Address)
		}
		seen[i] = true
	}
	return nil
}
