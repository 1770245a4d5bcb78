package types

import (
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	c := NewCandidates([]string{"1.1.1.1", "2.2.2.2", "3.3.3.3", "4.4.4.4"})
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Report{
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
		Timeout:    time.Second,
		Entries: []Sample{
			Success(c[2], 10*time.Millisecond),
			Success(c[0], 20*time.Millisecond),
			Failure(c[3], ReasonConnectionRefused, time.Millisecond, syscall.ECONNREFUSED),
			Timeout(c[1], time.Second),
		},
	}
}

func TestReport_Counts(t *testing.T) {
	r := sampleReport()
	assert.Equal(t, ReportCounts{Success: 2, Failure: 1, Timeout: 1}, r.Counts())
	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}

func TestReport_BestAndTop(t *testing.T) {
	r := sampleReport()

	best, ok := r.Best()
	require.True(t, ok)
	assert.Equal(t, "3.3.3.3", best.Candidate.Address)

	assert.Len(t, r.Top(1), 1)
	assert.Len(t, r.Top(10), 2, "Top 只返回成功样本")
	assert.Len(t, r.Top(0), 2)

	empty := &Report{Entries: []Sample{Timeout(Candidate{Address: "1.1.1.1"}, time.Second)}}
	_, ok = empty.Best()
	assert.False(t, ok)
	assert.Empty(t, empty.Top(5))

	t.Log("✅ Best/Top 只考虑成功样本")
}

func TestSample_Constructors(t *testing.T) {
	c := Candidate{Address: "1.1.1.1", Index: 3}

	s := Failure(c, ReasonConnectionRefused, time.Millisecond, syscall.ECONNREFUSED)
	assert.Equal(t, OutcomeFailure, s.Outcome)
	assert.Equal(t, syscall.ECONNREFUSED.Error(), s.Detail)
	assert.Equal(t, "1.1.1.1: failure(connection_refused)", s.String())

	s = Failure(c, ReasonCancelled, 0, nil)
	assert.Empty(t, s.Detail)

	s = Timeout(c, time.Second)
	assert.Equal(t, time.Second, s.Latency)
	assert.Equal(t, ReasonNone, s.Reason)
	assert.False(t, s.OK())

	s = Success(c, 5*time.Millisecond)
	assert.True(t, s.OK())
}

func TestReasonAndOutcomeText(t *testing.T) {
	text, err := ReasonHostDown.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "host_down", string(text))

	assert.Equal(t, "", ReasonNone.String())
	assert.Equal(t, "unknown", FailureReason(99).String())

	text, err = OutcomeTimeout.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, OutcomeTimeout.String(), string(text))
}
