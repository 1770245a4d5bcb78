package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReport_MarshalJSON(t *testing.T) {
	r := sampleReport()
	r.RunID = "run-1"
	r.Entries[0].Latency = 12500 * time.Microsecond

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got ReportJSON
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.EqualValues(t, 1000, got.TimeoutMS)
	assert.Equal(t, ReportCounts{Success: 2, Failure: 1, Timeout: 1}, got.Counts)

	require.Len(t, got.Entries, 4)
	first := got.Entries[0]
	assert.Equal(t, "3.3.3.3", first.Address)
	assert.Equal(t, 2, first.Index)
	assert.Equal(t, OutcomeSuccess, first.Outcome)
	assert.InDelta(t, 12.5, first.LatencyMS, 0.0001)
	assert.Empty(t, first.Reason)

	assert.Equal(t, "connection_refused", got.Entries[2].Reason)
	assert.Equal(t, OutcomeTimeout, got.Entries[3].Outcome)

	t.Log("✅ 报告 JSON 包含地址且延迟以毫秒表示")
}

func TestSample_MarshalJSON(t *testing.T) {
	s := Failure(Candidate{Address: "1.1.1.1:8443", Index: 4}, ReasonHostDown, 2*time.Millisecond, nil)

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"address":"1.1.1.1:8443","index":4,"outcome":"failure","latency_ms":2,"reason":"host_down"}`,
		string(data))
}

func TestOutcome_UnmarshalText(t *testing.T) {
	var o Outcome
	require.NoError(t, o.UnmarshalText([]byte("timeout")))
	assert.Equal(t, OutcomeTimeout, o)
	assert.Error(t, o.UnmarshalText([]byte("maybe")))
}
