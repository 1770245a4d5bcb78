package metrics

// Stats 探测统计快照
type Stats struct {
	Completed int64   // 已完成探测数
	Succeeded int64   // 成功
	Failed    int64   // 失败
	TimedOut  int64   // 超时
	InFlight  int64   // 在途
	Rate      float64 // 最近窗口内每秒完成数
}
