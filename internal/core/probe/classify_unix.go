//go:build unix

package probe

import (
	"errors"

	"golang.org/x/sys/unix"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// classifyErrno 基于 errno 分类
func classifyErrno(err error) (types.FailureReason, bool) {
	switch {
	case errors.Is(err, unix.ECONNREFUSED):
		return types.ReasonConnectionRefused, true
	case errors.Is(err, unix.ENETUNREACH), errors.Is(err, unix.ENETDOWN):
		return types.ReasonNetworkUnreachable, true
	case errors.Is(err, unix.EHOSTDOWN), errors.Is(err, unix.EHOSTUNREACH):
		return types.ReasonHostDown, true
	case errors.Is(err, unix.ECONNRESET), errors.Is(err, unix.ECONNABORTED):
		return types.ReasonConnectionReset, true
	default:
		return types.ReasonNone, false
	}
}
