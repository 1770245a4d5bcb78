package types

import "time"

// ============================================================================
//                              Report - 排序报告
// ============================================================================

// Report 一次运行的最终报告
//
// Entries 按 成功(延迟升序) < 失败 < 超时 排序，同组内按候选原始位置稳定排序。
// 由聚合器在运行结束时构建一次，之后只读。
type Report struct {
	// RunID 本次运行标识
	RunID string

	// StartedAt 开始时间
	StartedAt time.Time

	// FinishedAt 结束时间
	FinishedAt time.Time

	// Timeout 单次探测超时
	Timeout time.Duration

	// Concurrency 并发上限
	Concurrency int

	// Entries 排序后的样本
	Entries []Sample
}

// ReportCounts 各结果类型的数量
type ReportCounts struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Timeout int `json:"timeout"`
}

// Counts 统计各结果类型的数量
func (r *Report) Counts() ReportCounts {
	var c ReportCounts
	for _, e := range r.Entries {
		switch e.Outcome {
		case OutcomeSuccess:
			c.Success++
		case OutcomeFailure:
			c.Failure++
		case OutcomeTimeout:
			c.Timeout++
		}
	}
	return c
}

// Best 返回延迟最低的成功样本
func (r *Report) Best() (Sample, bool) {
	if len(r.Entries) == 0 || !r.Entries[0].OK() {
		return Sample{}, false
	}
	return r.Entries[0], true
}

// Top 返回前 n 个成功样本（n <= 0 表示全部）
func (r *Report) Top(n int) []Sample {
	var out []Sample
	for _, e := range r.Entries {
		if !e.OK() {
			break
		}
		if n > 0 && len(out) >= n {
			break
		}
		out = append(out, e)
	}
	return out
}

// Duration 运行耗时
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
