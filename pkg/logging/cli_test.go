package logging

import (
	"bytes"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level slog.Level) (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(NewCLIHandler(&buf, level)), &buf
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"Error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLogLevel(in), "level %q", in)
	}
}

func TestCLIHandler_Levels(t *testing.T) {
	tests := []struct {
		name    string
		handler slog.Level
		record  slog.Level
		want    bool
		color   string
	}{
		{"info at info", slog.LevelInfo, slog.LevelInfo, true, colorGreen},
		{"debug at info", slog.LevelInfo, slog.LevelDebug, false, ""},
		{"debug at debug", slog.LevelDebug, slog.LevelDebug, true, colorGreen},
		{"warn at info", slog.LevelInfo, slog.LevelWarn, true, colorYellow},
		{"info at error", slog.LevelError, slog.LevelInfo, false, ""},
		{"error at error", slog.LevelError, slog.LevelError, true, colorRed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newTestLogger(tt.handler)
			logger.Log(t.Context(), tt.record, "model checked")

			if !tt.want {
				assert.Zero(t, buf.Len())
				return
			}
			out := buf.String()
			assert.Contains(t, out, "model checked")
			assert.Contains(t, out, tt.color)
			assert.Contains(t, out, colorReset)
		})
	}
}

func TestCLIHandler_Attributes(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)

	logger.Info("loaded", "dim", 4, "strict", false)
	assert.Contains(t, buf.String(), "loaded: dim=4 strict=false")

	buf.Reset()
	logger.Info("bare")
	assert.NotContains(t, buf.String(), ":")
}

func TestCLIHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCLIHandler(&buf, slog.LevelInfo)
	assert.Same(t, handler, handler.WithAttrs(nil))

	slog.New(handler.WithAttrs([]slog.Attr{slog.String("model", "m1")})).Info("saved", "dim", 4)
	assert.Contains(t, buf.String(), "saved: model=m1 dim=4")

	buf.Reset()
	slog.New(handler).Info("plain")
	assert.NotContains(t, buf.String(), "model=m1")
}

func TestCLIHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	handler := NewCLIHandler(&buf, slog.LevelInfo)
	assert.Same(t, handler, handler.WithGroup(""))

	slog.New(handler).WithGroup("validate").Info("ok")
	assert.Contains(t, buf.String(), "[validate] ok")

	buf.Reset()
	slog.New(handler).WithGroup("cli").WithGroup("store").Warn("slow", "ms", 12)
	assert.Contains(t, buf.String(), "[cli.store] slow: ms=12")
}

func TestCLIHandler_WithoutColor(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewCLIHandler(&buf, slog.LevelInfo).WithoutColor()).Error("boom")
	assert.Equal(t, "boom\n", buf.String())
}

func TestCLIHandler_ConcurrentWrites(t *testing.T) {
	logger, buf := newTestLogger(slog.LevelInfo)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Info("edge", "i", i)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, bytes.Count(buf.Bytes(), []byte("\n")))
}

func TestNewCLILogger_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	logger := NewCLILogger("debug")
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(t.Context(), slog.LevelDebug))

	h, ok := logger.Handler().(*CLIHandler)
	require.True(t, ok)
	assert.True(t, h.noColor)
}

func TestSetDefaultCLILogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	SetDefaultCLILogger("error")
	assert.False(t, slog.Default().Enabled(t.Context(), slog.LevelWarn))
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelError))
}
