// Package metrics 提供探测指标收集
//
// Recorder 同时实现 interfaces.SampleObserver 与 interfaces.InFlightObserver，
// 注册到调度器后随样本完成更新以下 Prometheus 指标：
//   - cdnopt_probes_total{outcome,reason}：按结果与失败原因计数
//   - cdnopt_probe_latency_seconds：成功探测的延迟直方图
//   - cdnopt_probes_in_flight：在途探测数
//   - cdnopt_runs_total：运行次数
//
// 工具没有监听端口，指标通过 WriteTextfile 写入 node_exporter
// textfile collector 可读取的文件。
//
// # 快速开始
//
//	reg := prometheus.NewRegistry()
//	rec, _ := metrics.NewRecorder(metrics.DefaultConfig(), reg, nil)
//	sched.AddObserver(rec)
//	...
//	_ = rec.WriteTextfile("/var/lib/node_exporter/cdnopt.prom")
//
// # 快照日志
//
// SnapshotLogger 按固定间隔输出 Recorder 的快照（完成数、在途数、
// 最近一分钟的完成速率），用于无进度条的长时间运行。
//
// # 并发安全
//
// Prometheus 收集器自身并发安全；快照计数使用原子操作，
// RateMeter 内部加锁。
package metrics
