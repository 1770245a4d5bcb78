package probe

import (
	"context"
	"errors"
	"net"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// Classify 将探测错误映射为结果类型与失败原因
//
// err 为 nil 时返回 OutcomeSuccess。库内部的超时（例如 QUIC 握手空闲超时）
// 映射为 OutcomeTimeout。
func Classify(err error) (types.Outcome, types.FailureReason) {
	if err == nil {
		return types.OutcomeSuccess, types.ReasonNone
	}

	if errors.Is(err, context.Canceled) {
		return types.OutcomeFailure, types.ReasonCancelled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.OutcomeTimeout, types.ReasonNone
	}

	if reason, ok := classifyErrno(err); ok {
		return types.OutcomeFailure, reason
	}

	var hsErr *HandshakeError
	if errors.As(err, &hsErr) {
		return types.OutcomeFailure, types.ReasonHandshakeFailed
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.OutcomeTimeout, types.ReasonNone
	}

	return types.OutcomeFailure, types.ReasonUnknown
}
