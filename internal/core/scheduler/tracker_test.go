package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

func TestTracker_Transitions(t *testing.T) {
	tr := newTracker(3)
	assert.Equal(t, StatePending, tr.state(0))

	require.NoError(t, tr.begin(0))
	assert.Equal(t, StateInFlight, tr.state(0))
	require.NoError(t, tr.finish(0, types.OutcomeSuccess))
	assert.Equal(t, StateSucceeded, tr.state(0))

	require.NoError(t, tr.begin(1))
	require.NoError(t, tr.finish(1, types.OutcomeFailure))
	assert.Equal(t, StateFailed, tr.state(1))

	require.NoError(t, tr.begin(2))
	require.NoError(t, tr.finish(2, types.OutcomeTimeout))
	assert.Equal(t, StateTimedOut, tr.state(2))

	counts := tr.counts()
	assert.Equal(t, 1, counts[StateSucceeded])
	assert.Equal(t, 1, counts[StateFailed])
	assert.Equal(t, 1, counts[StateTimedOut])
	assert.Zero(t, counts[StatePending])
}

func TestTracker_RejectsIllegalTransitions(t *testing.T) {
	tr := newTracker(2)

	// 未派发不能直接结束
	assert.ErrorIs(t, tr.finish(0, types.OutcomeSuccess), ErrInvalidTransition)

	require.NoError(t, tr.begin(0))
	assert.ErrorIs(t, tr.begin(0), ErrInvalidTransition)

	require.NoError(t, tr.finish(0, types.OutcomeFailure))
	// 终态之后不再转换
	assert.ErrorIs(t, tr.finish(0, types.OutcomeSuccess), ErrInvalidTransition)
	assert.ErrorIs(t, tr.begin(0), ErrInvalidTransition)
	assert.Equal(t, StateFailed, tr.state(0))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "pending", StatePending.String())
	assert.Equal(t, "in_flight", StateInFlight.String())
	assert.Equal(t, "timed_out", StateTimedOut.String())
	assert.Equal(t, "unknown", State(42).String())

	assert.False(t, StateInFlight.Terminal())
	assert.True(t, StateSucceeded.Terminal())
	assert.True(t, StateTimedOut.Terminal())
}
