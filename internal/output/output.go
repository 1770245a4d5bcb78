// Package output 渲染探测报告
//
// 支持三种输出：
//   - text：对齐的表格，每行一个候选
//   - json：完整报告，含运行元数据与统计
//   - links：前 N 个成功候选替换后的分享链接，每行 "<link> (Latency: 12ms)"
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dep2p/go-cdnopt/internal/nodelink"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

// DefaultLinksFile 默认链接输出文件
const DefaultLinksFile = "optimized_nodes.txt"

// DefaultTopN 默认输出的链接数
const DefaultTopN = 10

// Format 报告格式
type Format string

const (
	// FormatText 文本表格
	FormatText Format = "text"
	// FormatJSON JSON
	FormatJSON Format = "json"
)

// ParseFormat 解析格式名，空串为 text
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

// Write 按格式写出报告
func Write(w io.Writer, f Format, r *types.Report) error {
	switch f {
	case FormatJSON:
		return WriteJSON(w, r)
	default:
		return WriteText(w, r)
	}
}

// ============================================================================
//                              text
// ============================================================================

// WriteText 写出文本表格
func WriteText(w io.Writer, r *types.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tADDRESS\tOUTCOME\tLATENCY/REASON")
	for i, e := range r.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Candidate.Address, e.Outcome, latencyOrReason(e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	c := r.Counts()
	_, err := fmt.Fprintf(w, "\n%d candidates: %d success, %d failure, %d timeout (timeout %s, concurrency %d, took %s)\n",
		len(r.Entries), c.Success, c.Failure, c.Timeout,
		r.Timeout, r.Concurrency, r.Duration().Round(time.Millisecond))
	return err
}

func latencyOrReason(s types.Sample) string {
	switch s.Outcome {
	case types.OutcomeSuccess:
		return FormatLatency(s.Latency)
	case types.OutcomeFailure:
		return s.Reason.String()
	default:
		return ">" + FormatLatency(s.Latency)
	}
}

// FormatLatency 毫秒精度显示延迟，1ms 以下保留微秒
func FormatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

// ============================================================================
//                              json
// ============================================================================

// jsonEntry 报告条目，附带名次
type jsonEntry struct {
	Rank int `json:"rank"`
	types.SampleJSON
}

type jsonReport struct {
	types.ReportJSON
	Entries []jsonEntry `json:"entries"`
}

// WriteJSON 写出 JSON 报告
func WriteJSON(w io.Writer, r *types.Report) error {
	out := jsonReport{
		ReportJSON: r.JSON(),
		Entries:    make([]jsonEntry, 0, len(r.Entries)),
	}
	for i, e := range out.ReportJSON.Entries {
		out.Entries = append(out.Entries, jsonEntry{Rank: i + 1, SampleJSON: e})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ============================================================================
//                              links
// ============================================================================

// WriteLinks 写出前 n 个成功候选的替换链接，返回写出的数量
func WriteLinks(w io.Writer, link *nodelink.Link, r *types.Report, n int) (int, error) {
	count := 0
	for _, e := range r.Top(n) {
		rewritten, err := link.Rewrite(e.Candidate.Address)
		if err != nil {
			return count, err
		}
		if _, err := fmt.Fprintf(w, "%s (Latency: %s)\n", rewritten, FormatLatency(e.Latency)); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

// WriteLinksFile 将链接写入文件
func WriteLinksFile(path string, link *nodelink.Link, r *types.Report, n int) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}
	count, werr := WriteLinks(f, link, r, n)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	return count, werr
}
