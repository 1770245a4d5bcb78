// Package types 定义 cdnopt 的基础类型
//
// 本文件定义所有公共错误类型。
package types

import "errors"

// ============================================================================
//                              输入校验错误
// ============================================================================

var (
	// ErrEmptyCandidates 候选列表为空
	ErrEmptyCandidates = errors.New("empty candidate list")

	// ErrInvalidTimeout 超时值非正
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrInvalidConcurrency 并发上限非正
	ErrInvalidConcurrency = errors.New("concurrency limit must be positive")

	// ErrInvalidCandidate 候选地址格式错误
	ErrInvalidCandidate = errors.New("invalid candidate address")

	// ErrDuplicateCandidate 候选地址重复
	ErrDuplicateCandidate = errors.New("duplicate candidate address")
)

// ============================================================================
//                              聚合错误
// ============================================================================

var (
	// ErrMissingSample 某个候选缺少样本
	ErrMissingSample = errors.New("missing sample for candidate")

	// ErrDuplicateSample 某个候选存在多个样本
	ErrDuplicateSample = errors.New("duplicate sample for candidate")
)
