package main

import (
	"io"
	"sync/atomic"

	"github.com/cheggaaa/pb/v3"

	"github.com/dep2p/go-cdnopt/pkg/types"
)

const progressTemplate = `{{counters . }} {{bar . }} {{percent . }} ok:{{string . "ok"}} in-flight:{{string . "inflight"}} {{etime . }}`

// progressBar 以进度条展示探测进度
//
// 同时实现 SampleObserver 与 InFlightObserver，作为单次运行的观察者传入。
type progressBar struct {
	bar *pb.ProgressBar
	ok  atomic.Int64
}

func newProgressBar(total int, w io.Writer) *progressBar {
	bar := pb.New(total)
	bar.SetTemplateString(progressTemplate)
	bar.SetWriter(w)
	bar.Set("ok", 0)
	bar.Set("inflight", 0)
	bar.Start()
	return &progressBar{bar: bar}
}

// Observe 实现 SampleObserver
func (p *progressBar) Observe(s types.Sample) {
	if s.OK() {
		p.bar.Set("ok", p.ok.Add(1))
	}
	p.bar.Increment()
}

// SetInFlight 实现 InFlightObserver
func (p *progressBar) SetInFlight(n int) {
	p.bar.Set("inflight", n)
}

// Finish 结束进度条
func (p *progressBar) Finish() {
	p.bar.Finish()
}
