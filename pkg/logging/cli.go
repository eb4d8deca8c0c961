// Package logging provides the slog handler used by the vinecop command.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

const (
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorReset  = "\033[0m"
)

// CLIHandler writes one line per record: an optional [group] prefix, the
// message and its attributes as key=value pairs, colored by level.
type CLIHandler struct {
	mu      *sync.Mutex
	writer  io.Writer
	level   slog.Level
	noColor bool
	prefix  string
	attrs   []string
}

func NewCLIHandler(w io.Writer, level slog.Level) *CLIHandler {
	return &CLIHandler{
		mu:     &sync.Mutex{},
		writer: w,
		level:  level,
	}
}

// WithoutColor returns a copy of the handler that writes plain text.
func (h *CLIHandler) WithoutColor() *CLIHandler {
	c := h.clone()
	c.noColor = true
	return c
}

func (h *CLIHandler) clone() *CLIHandler {
	c := *h
	c.attrs = append([]string(nil), h.attrs...)
	return &c
}

func (h *CLIHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *CLIHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	if h.prefix != "" {
		msg = "[" + h.prefix + "] " + msg
	}

	attrs := append([]string(nil), h.attrs...)
	r.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, formatAttr(a))
		return true
	})
	if len(attrs) > 0 {
		msg = msg + ": " + strings.Join(attrs, " ")
	}

	if !h.noColor {
		msg = levelColor(r.Level) + msg + colorReset
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.writer, msg)
	return err
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return colorRed
	case l >= slog.LevelWarn:
		return colorYellow
	default:
		return colorGreen
	}
}

func formatAttr(a slog.Attr) string {
	return fmt.Sprintf("%s=%v", a.Key, a.Value.Resolve())
}

func (h *CLIHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	for _, a := range attrs {
		c.attrs = append(c.attrs, formatAttr(a))
	}
	return c
}

// WithGroup nests the prefix, so a "store" group inside "cli" prints [cli.store].
func (h *CLIHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	if c.prefix == "" {
		c.prefix = name
	} else {
		c.prefix = c.prefix + "." + name
	}
	return c
}

// NewCLILogger returns a logger writing to stderr. Colors are dropped when
// NO_COLOR is set.
func NewCLILogger(level string) *slog.Logger {
	handler := NewCLIHandler(os.Stderr, ParseLogLevel(level))
	if os.Getenv("NO_COLOR") != "" {
		handler = handler.WithoutColor()
	}
	return slog.New(handler)
}

func SetDefaultCLILogger(level string) {
	slog.SetDefault(NewCLILogger(level))
}

// ParseLogLevel converts a string log level to slog.Level.
// Defaults to slog.LevelInfo for unrecognized strings.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
