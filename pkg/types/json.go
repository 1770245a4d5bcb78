package types

import (
	"encoding/json"
	"time"
)

// ============================================================================
//                              JSON 编码
// ============================================================================

// SampleJSON Sample 的 JSON 形式，延迟以毫秒表示
type SampleJSON struct {
	Address   string  `json:"address"`
	Index     int     `json:"index"`
	Outcome   Outcome `json:"outcome"`
	LatencyMS float64 `json:"latency_ms"`
	Reason    string  `json:"reason,omitempty"`
	Detail    string  `json:"detail,omitempty"`
}

// ReportJSON Report 的 JSON 形式
type ReportJSON struct {
	RunID       string       `json:"run_id"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	TimeoutMS   int64        `json:"timeout_ms"`
	Concurrency int          `json:"concurrency"`
	Counts      ReportCounts `json:"counts"`
	Entries     []SampleJSON `json:"entries"`
}

// JSON 返回样本的 JSON 形式
func (s Sample) JSON() SampleJSON {
	return SampleJSON{
		Address:   s.Candidate.Address,
		Index:     s.Candidate.Index,
		Outcome:   s.Outcome,
		LatencyMS: float64(s.Latency) / float64(time.Millisecond),
		Reason:    s.Reason.String(),
		Detail:    s.Detail,
	}
}

// MarshalJSON 实现 json.Marshaler
func (s Sample) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSON())
}

// JSON 返回报告的 JSON 形式
func (r *Report) JSON() ReportJSON {
	out := ReportJSON{
		RunID:       r.RunID,
		StartedAt:   r.StartedAt,
		FinishedAt:  r.FinishedAt,
		TimeoutMS:   r.Timeout.Milliseconds(),
		Concurrency: r.Concurrency,
		Counts:      r.Counts(),
		Entries:     make([]SampleJSON, 0, len(r.Entries)),
	}
	for _, e := range r.Entries {
		out.Entries = append(out.Entries, e.JSON())
	}
	return out
}

// MarshalJSON 实现 json.Marshaler
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.JSON())
}
