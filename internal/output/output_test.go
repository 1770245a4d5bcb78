package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-cdnopt/internal/nodelink"
	"github.com/dep2p/go-cdnopt/pkg/types"
)

func testReport() *types.Report {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return &types.Report{
		RunID:       "run-1",
		StartedAt:   start,
		FinishedAt:  start.Add(1500 * time.Millisecond),
		Timeout:     time.Second,
		Concurrency: 4,
		Entries: []types.Sample{
			types.Success(types.Candidate{Address: "104.16.1.1", Index: 2}, 12*time.Millisecond+300*time.Microsecond),
			types.Success(types.Candidate{Address: "[2606:4700::1]:8443", Index: 0}, 40*time.Millisecond),
			types.Failure(types.Candidate{Address: "104.16.1.2", Index: 1}, types.ReasonConnectionRefused, 0, nil),
			types.Timeout(types.Candidate{Address: "104.16.1.3", Index: 3}, time.Second),
		},
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat(" JSON ")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, testReport()))

	lines := strings.Split(buf.String(), "\n")
	assert.True(t, strings.HasPrefix(lines[0], "RANK"))
	assert.Contains(t, lines[1], "104.16.1.1")
	assert.Contains(t, lines[1], "12ms")
	assert.Contains(t, lines[3], "connection_refused")
	assert.Contains(t, lines[4], ">1s")
	assert.Contains(t, buf.String(), "4 candidates: 2 success, 1 failure, 1 timeout")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, testReport()))

	var got jsonReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.EqualValues(t, 1000, got.TimeoutMS)
	assert.Equal(t, 2, got.Counts.Success)
	require.Len(t, got.Entries, 4)
	assert.Equal(t, 1, got.Entries[0].Rank)
	assert.Equal(t, 2, got.Entries[0].Index)
	assert.Equal(t, "104.16.1.1", got.Entries[0].Address)
	assert.Equal(t, types.OutcomeSuccess, got.Entries[0].Outcome)
	assert.InDelta(t, 12.3, got.Entries[0].LatencyMS, 0.001)
	assert.Equal(t, "connection_refused", got.Entries[2].Reason)
	assert.Empty(t, got.Entries[3].Reason)
}

func TestWriteLinks(t *testing.T) {
	link, err := nodelink.Parse("vless://u@cdn.example.com:443?security=tls#HK")
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := WriteLinks(&buf, link, testReport(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t,
		"vless://u@104.16.1.1:443?security=tls&sni=cdn.example.com#HK (Latency: 12ms)\n"+
			"vless://u@[2606:4700::1]:8443?security=tls&sni=cdn.example.com#HK (Latency: 40ms)\n",
		buf.String())

	buf.Reset()
	n, err = WriteLinks(&buf, link, testReport(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestWriteLinksFile(t *testing.T) {
	link, err := nodelink.Parse("trojan://pw@1.2.3.4:443#x")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DefaultLinksFile)
	n, err := WriteLinksFile(path, link, testReport(), DefaultTopN)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "trojan://pw@104.16.1.1:443#x (Latency: 12ms)"))
}

func TestFormatLatency(t *testing.T) {
	assert.Equal(t, "12ms", FormatLatency(12*time.Millisecond+400*time.Microsecond))
	assert.Equal(t, "850µs", FormatLatency(850*time.Microsecond))
	assert.Equal(t, "1.5s", FormatLatency(1500*time.Millisecond))
}
