//go:build !unix && !windows

package probe

import "github.com/dep2p/go-cdnopt/pkg/types"

func classifyErrno(error) (types.FailureReason, bool) {
	return types.ReasonNone, false
}
