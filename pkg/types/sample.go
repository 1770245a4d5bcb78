package types

import (
	"fmt"
	"time"
)

// ============================================================================
//                              Outcome - 探测结果类型
// ============================================================================

// Outcome 一次探测的结果类型
//
// 取值顺序即报告中的排序优先级：成功 < 失败 < 超时。
type Outcome int

const (
	// OutcomeSuccess 连接建立成功
	OutcomeSuccess Outcome = iota
	// OutcomeFailure 连接失败（见 FailureReason）
	OutcomeFailure
	// OutcomeTimeout 超时
	OutcomeTimeout
)

// String 返回结果类型的字符串表示
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (o *Outcome) UnmarshalText(text []byte) error {
	switch string(text) {
	case "success":
		*o = OutcomeSuccess
	case "failure":
		*o = OutcomeFailure
	case "timeout":
		*o = OutcomeTimeout
	default:
		return fmt.Errorf("unknown outcome %q", text)
	}
	return nil
}

// ============================================================================
//                              FailureReason - 失败原因
// ============================================================================

// FailureReason 失败原因
type FailureReason int

const (
	// ReasonNone 无（非失败结果）
	ReasonNone FailureReason = iota
	// ReasonConnectionRefused 连接被拒绝
	ReasonConnectionRefused
	// ReasonNetworkUnreachable 网络不可达
	ReasonNetworkUnreachable
	// ReasonHostDown 主机宕机或不可达
	ReasonHostDown
	// ReasonConnectionReset 连接被重置
	ReasonConnectionReset
	// ReasonHandshakeFailed TLS/QUIC 握手失败
	ReasonHandshakeFailed
	// ReasonCancelled 运行被外部取消
	ReasonCancelled
	// ReasonUnknown 其他错误
	ReasonUnknown
)

// String 返回失败原因的字符串表示
func (r FailureReason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonConnectionRefused:
		return "connection_refused"
	case ReasonNetworkUnreachable:
		return "network_unreachable"
	case ReasonHostDown:
		return "host_down"
	case ReasonConnectionReset:
		return "connection_reset"
	case ReasonHandshakeFailed:
		return "handshake_failed"
	case ReasonCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (r FailureReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// ============================================================================
//                              Attempt - 单次尝试
// ============================================================================

// Attempt 探测器返回的原始结果
//
// Err 为 nil 表示连接已建立，Latency 为从开始到建立的耗时；
// 否则 Latency 为从开始到失败的耗时。
type Attempt struct {
	Latency time.Duration
	Err     error
}

// ============================================================================
//                              Sample - 探测样本
// ============================================================================

// Sample 一个候选的最终探测样本
//
// 每个 Candidate 在一次运行中恰好产生一个 Sample。
type Sample struct {
	// Candidate 对应的候选
	Candidate Candidate

	// Outcome 结果类型
	Outcome Outcome

	// Latency 成功时为连接耗时，超时时为超时值，失败时为失败前耗时
	Latency time.Duration

	// Reason 失败原因，仅 OutcomeFailure 时有效
	Reason FailureReason

	// Detail 原始错误信息
	Detail string
}

// Success 构造成功样本
func Success(c Candidate, latency time.Duration) Sample {
	return Sample{Candidate: c, Outcome: OutcomeSuccess, Latency: latency}
}

// Failure 构造失败样本
func Failure(c Candidate, reason FailureReason, latency time.Duration, err error) Sample {
	s := Sample{Candidate: c, Outcome: OutcomeFailure, Reason: reason, Latency: latency}
	if err != nil {
		s.Detail = err.Error()
	}
	return s
}

// Timeout 构造超时样本
func Timeout(c Candidate, timeout time.Duration) Sample {
	return Sample{Candidate: c, Outcome: OutcomeTimeout, Latency: timeout}
}

// OK 是否成功
func (s Sample) OK() bool {
	return s.Outcome == OutcomeSuccess
}

// String 返回样本的简短描述
func (s Sample) String() string {
	switch s.Outcome {
	case OutcomeSuccess:
		return fmt.Sprintf("%s: success(%s)", s.Candidate.Address, s.Latency)
	case OutcomeFailure:
		return fmt.Sprintf("%s: failure(%s)", s.Candidate.Address, s.Reason)
	default:
		return fmt.Sprintf("%s: %s", s.Candidate.Address, s.Outcome)
	}
}
