//go:build windows

package probe

import (
	"errors"
	"syscall"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// classifyErrno Windows 平台使用 syscall 导出的 errno
func classifyErrno(err error) (types.FailureReason, bool) {
	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return types.ReasonConnectionRefused, true
	case errors.Is(err, syscall.ENETUNREACH):
		return types.ReasonNetworkUnreachable, true
	case errors.Is(err, syscall.EHOSTUNREACH):
		return types.ReasonHostDown, true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.ECONNABORTED):
		return types.ReasonConnectionReset, true
	default:
		return types.ReasonNone, false
	}
}
