package logger

import (
	"context"
	"io"
	"log/slog"
	"sync"
)

// componentKey LazyLogger 附加的组件属性名
const componentKey = "component"

// levelTable 组件级别表，所有派生 handler 共享
type levelTable struct {
	mu       sync.RWMutex
	fallback slog.Level
	levels   map[string]slog.Level
}

func (t *levelTable) get(component string) slog.Level {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if l, ok := t.levels[component]; ok {
		return l
	}
	return t.fallback
}

func (t *levelTable) set(component string, level slog.Level) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if component == "" {
		t.fallback = level
		return
	}
	t.levels[component] = level
}

// componentHandler 按组件过滤级别的 slog.Handler
//
// 组件名来自 With("component", ...) 属性，级别在每条记录上实时查表，
// 因此 SetLevel 对已创建的 logger 同样生效。
type componentHandler struct {
	component string
	table     *levelTable
	inner     slog.Handler
}

// NewHandler 创建按组件过滤级别的 Handler
func NewHandler(w io.Writer, cfg *Config) slog.Handler {
	opts := &slog.HandlerOptions{
		// 级别过滤由 componentHandler 负责
		Level:     slog.LevelDebug,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.LevelKey {
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelToString(lvl))
				}
			}
			return a
		},
	}

	var inner slog.Handler
	if cfg.Format == FormatJSON {
		inner = slog.NewJSONHandler(w, opts)
	} else {
		inner = slog.NewTextHandler(w, opts)
	}

	levels := make(map[string]slog.Level, len(cfg.ComponentLevels))
	for k, v := range cfg.ComponentLevels {
		levels[k] = v
	}

	return &componentHandler{
		table: &levelTable{fallback: cfg.DefaultLevel, levels: levels},
		inner: inner,
	}
}

// Enabled 检查是否启用指定级别
func (h *componentHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.table.get(h.component)
}

// Handle 处理日志记录
func (h *componentHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

// WithAttrs 添加属性，记录组件名
func (h *componentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	component := h.component
	for _, a := range attrs {
		if a.Key == componentKey {
			component = a.Value.String()
		}
	}
	return &componentHandler{
		component: component,
		table:     h.table,
		inner:     h.inner.WithAttrs(attrs),
	}
}

// WithGroup 添加组
func (h *componentHandler) WithGroup(name string) slog.Handler {
	return &componentHandler{
		component: h.component,
		table:     h.table,
		inner:     h.inner.WithGroup(name),
	}
}

func levelToString(level slog.Level) string {
	switch {
	case level < slog.LevelInfo:
		return "debug"
	case level < slog.LevelWarn:
		return "info"
	case level < slog.LevelError:
		return "warn"
	default:
		return "error"
	}
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回一个丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
