// Package logger 安装 cdnopt 的全局日志 Handler
//
// 各组件通过 pkg/lib/log 获取 LazyLogger（每次调用读取 slog.Default()），
// 本包负责构造并安装默认 Handler：
//   - 按组件配置日志级别（CDNOPT_LOG_LEVEL）
//   - 文本或 JSON 格式（CDNOPT_LOG_FORMAT）
//
// 使用示例:
//
//	logger.Setup(os.Stderr)
//
//	var log = log.Logger("scheduler")
//	log.Info("run finished", "candidates", n, "elapsed", d)
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	installed   *componentHandler
	installedMu sync.Mutex
)

// Setup 使用环境变量配置安装默认 logger
func Setup(w io.Writer) *slog.Logger {
	return SetupWithConfig(w, ConfigFromEnv())
}

// SetupWithConfig 使用指定配置安装默认 logger
func SetupWithConfig(w io.Writer, cfg *Config) *slog.Logger {
	h := NewHandler(w, cfg)

	installedMu.Lock()
	installed = h.(*componentHandler)
	installedMu.Unlock()

	l := slog.New(h)
	slog.SetDefault(l)
	return l
}

// SetLevel 动态设置组件的日志级别
//
// component 为空时设置默认级别。需先调用 Setup。
func SetLevel(component string, level slog.Level) {
	installedMu.Lock()
	h := installed
	installedMu.Unlock()

	if h != nil {
		h.table.set(component, level)
	}
}

// Discard 返回一个丢弃所有日志的 Logger
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}
