package cdnopt

import (
	"errors"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

// 公共错误定义
var (
	// ────────────────────────────────────────────────────────────────────────
	// 引擎生命周期错误
	// ────────────────────────────────────────────────────────────────────────

	// ErrNotStarted 引擎未启动
	ErrNotStarted = errors.New("engine not started")

	// ErrAlreadyStarted 引擎已启动
	ErrAlreadyStarted = errors.New("engine already started")

	// ErrEngineClosed 引擎已关闭
	ErrEngineClosed = errors.New("engine closed")

	// ────────────────────────────────────────────────────────────────────────
	// 输入校验错误（在任何探测开始前返回）
	// ────────────────────────────────────────────────────────────────────────

	// ErrEmptyCandidates 候选列表为空
	ErrEmptyCandidates = types.ErrEmptyCandidates

	// ErrInvalidTimeout 超时值非正
	ErrInvalidTimeout = types.ErrInvalidTimeout

	// ErrInvalidConcurrency 并发上限非正
	ErrInvalidConcurrency = types.ErrInvalidConcurrency

	// ErrInvalidCandidate 候选地址格式错误
	ErrInvalidCandidate = types.ErrInvalidCandidate

	// ErrDuplicateCandidate 候选地址重复
	ErrDuplicateCandidate = types.ErrDuplicateCandidate
)
