package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// State 候选在一次运行中的状态
//
// 允许的转换：
//
//	pending  -> in_flight
//	in_flight -> succeeded | failed | timed_out
//
// 终态之后不再转换。
type State int32

const (
	// StatePending 等待派发
	StatePending State = iota
	// StateInFlight 探测进行中
	StateInFlight
	// StateSucceeded 成功
	StateSucceeded
	// StateFailed 失败
	StateFailed
	// StateTimedOut 超时
	StateTimedOut
)

// String 返回状态的字符串表示
func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateInFlight:
		return "in_flight"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal 是否为终态
func (s State) Terminal() bool {
	return s >= StateSucceeded
}

// ErrInvalidTransition 非法状态转换
var ErrInvalidTransition = errors.New("invalid candidate state transition")

func stateFor(o types.Outcome) State {
	switch o {
	case types.OutcomeSuccess:
		return StateSucceeded
	case types.OutcomeTimeout:
		return StateTimedOut
	default:
		return StateFailed
	}
}

// tracker 记录每个候选的状态
//
// 每个槽位只被派发循环与其所属探测 goroutine 访问，用 CAS 保证转换合法。
type tracker struct {
	states []atomic.Int32
}

func newTracker(n int) *tracker {
	return &tracker{states: make([]atomic.Int32, n)}
}

// begin pending -> in_flight
func (t *tracker) begin(i int) error {
	if !t.states[i].CompareAndSwap(int32(StatePending), int32(StateInFlight)) {
		return fmt.Errorf("%w: candidate %d %s -> %s", ErrInvalidTransition, i, t.state(i), StateInFlight)
	}
	return nil
}

// finish in_flight -> 终态
func (t *tracker) finish(i int, o types.Outcome) error {
	next := stateFor(o)
	if !t.states[i].CompareAndSwap(int32(StateInFlight), int32(next)) {
		return fmt.Errorf("%w: candidate %d %s -> %s", ErrInvalidTransition, i, t.state(i), next)
	}
	return nil
}

func (t *tracker) state(i int) State {
	return State(t.states[i].Load())
}

// counts 按状态计数
func (t *tracker) counts() map[State]int {
	out := make(map[State]int, 5)
	for i := range t.states {
		out[t.state(i)]++
	}
	return out
}
