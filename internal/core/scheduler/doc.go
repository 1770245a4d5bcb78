// Package scheduler 提供候选地址探测调度器
//
// Scheduler 负责把候选列表分发给探测器：
//   - 许可池：semaphore 容量即并发上限，派发前获取许可，完成后归还
//   - 工作池：ants 复用 goroutine 执行探测，避免大列表时反复创建
//   - 派发限速：可选的令牌桶，限制每秒新建连接数
//   - 状态跟踪：每个候选 Pending → InFlight → {Succeeded, Failed, TimedOut}
//
// # 使用示例
//
//	sched, _ := scheduler.New(scheduler.DefaultConfig(), prober, governor.NewFactory(nil))
//	sched.AddObserver(collector)
//	samples, err := sched.Run(ctx, types.NewCandidates(addrs), 3*time.Second, 64)
//
// # 不变量
//
//   - 每个候选恰好产生一个样本，按候选位置写入结果切片
//   - 任意时刻在途探测数不超过并发上限，也不会为负
//   - 输入校验在任何探测开始之前完成
//
// 外部取消运行时，在途与未派发的候选均记为 Failure(Cancelled)，
// Run 同时返回完整样本与 ctx 错误。
package scheduler
