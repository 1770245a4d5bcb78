// Package types 定义 cdnopt 的公共数据结构
//
// 这是整个系统的最底层包，不依赖任何其他 cdnopt 内部包。
// 所有类型都是纯值类型，用于在探测、调度、聚合各模块间传递数据。
//
// # 文件组织
//
//   - candidate.go - Candidate 候选地址
//   - sample.go    - Outcome, FailureReason, Attempt, Sample
//   - report.go    - Report 排序后的最终报告
//   - errors.go    - 公共错误定义
//
// # 候选状态机
//
// 每个 Candidate 在一次运行中经历：
//
//	Pending → InFlight → {Succeeded, Failed, TimedOut}
//
// 终态之后不再发生任何转换。
package types
