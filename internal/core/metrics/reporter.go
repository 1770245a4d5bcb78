package metrics

import (
	pkgif "github.com/dep2p/go-cdnopt/pkg/interfaces"
)

// Reporter 探测指标记录器
type Reporter interface {
	pkgif.SampleObserver
	pkgif.InFlightObserver

	// RunStarted 记录一次运行开始
	RunStarted()

	// Snapshot 返回当前统计快照
	Snapshot() Stats

	// WriteTextfile 将指标写入 textfile collector 文件
	WriteTextfile(path string) error
}

// 确保 Recorder 实现 Reporter 接口
var _ Reporter = (*Recorder)(nil)
