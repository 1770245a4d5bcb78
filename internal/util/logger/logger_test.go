package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	env := map[string]string{
		EnvLevel:  "probe=debug, scheduler=warn,error",
		EnvFormat: "JSON",
	}
	cfg := parseConfig(func(k string) string { return env[k] })

	assert.Equal(t, slog.LevelError, cfg.DefaultLevel)
	assert.Equal(t, slog.LevelDebug, cfg.LevelFor("probe"))
	assert.Equal(t, slog.LevelWarn, cfg.LevelFor("scheduler"))
	assert.Equal(t, slog.LevelError, cfg.LevelFor("aggregator"))
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.False(t, cfg.AddSource)
}

func TestParseConfig_Defaults(t *testing.T) {
	cfg := parseConfig(func(string) string { return "" })

	assert.Equal(t, slog.LevelInfo, cfg.DefaultLevel)
	assert.Equal(t, FormatText, cfg.Format)
	assert.Empty(t, cfg.ComponentLevels)
}

func TestParseLevel(t *testing.T) {
	for name, want := range map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	} {
		got, ok := ParseLevel(name)
		require.True(t, ok, name)
		assert.Equal(t, want, got, name)
	}

	_, ok := ParseLevel("verbose")
	assert.False(t, ok)
}

func TestHandler_ComponentLevels(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := &Config{
		DefaultLevel:    slog.LevelWarn,
		ComponentLevels: map[string]slog.Level{"probe": slog.LevelDebug},
	}
	l := slog.New(NewHandler(buf, cfg))

	l.With("component", "probe").Debug("dial started", "addr", "1.1.1.1:443")
	l.With("component", "scheduler").Info("dropped")
	l.With("component", "scheduler").Warn("kept")

	out := buf.String()
	assert.Contains(t, out, "dial started")
	assert.Contains(t, out, "component=probe")
	assert.Contains(t, out, "level=debug")
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept")
}

func TestSetLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	prev := slog.Default()
	defer slog.SetDefault(prev)

	SetupWithConfig(buf, &Config{DefaultLevel: slog.LevelInfo})
	l := slog.Default().With("component", "governor")

	l.Debug("hidden")
	SetLevel("governor", slog.LevelDebug)
	l.Debug("visible")

	out := buf.String()
	assert.False(t, strings.Contains(out, "hidden"))
	assert.True(t, strings.Contains(out, "visible"))
}

func TestDiscard(t *testing.T) {
	l := Discard()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
}
