package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// prettyHandler is a slog.Handler that prints short, colorized lines to a
// console, the same shape as the pretty console handler the teacher wires up
// as the process-wide slog default in its backend entrypoint.
type prettyHandler struct {
	mu  *sync.Mutex
	out io.Writer
	lvl slog.Leveler
}

// NewPrettyHandler builds a console-friendly slog.Handler.
func NewPrettyHandler(out io.Writer, lvl slog.Leveler) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, out: out, lvl: lvl}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	min := slog.LevelInfo
	if h.lvl != nil {
		min = h.lvl.Level()
	}
	return level >= min
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var levelColor func(format string, a ...any) string
	switch {
	case r.Level >= slog.LevelError:
		levelColor = color.New(color.FgRed, color.Bold).Sprintf
	case r.Level >= slog.LevelWarn:
		levelColor = color.New(color.FgYellow).Sprintf
	case r.Level >= slog.LevelInfo:
		levelColor = color.New(color.FgCyan).Sprintf
	default:
		levelColor = color.New(color.FgWhite).Sprintf
	}

	fmt.Fprintf(h.out, "%s %s %s", r.Time.Format(time.TimeOnly), levelColor("%-5s", r.Level.String()), r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(h.out, " %s=%v", a.Key, a.Value)
		return true
	})
	fmt.Fprintln(h.out)
	return nil
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *prettyHandler) WithGroup(name string) slog.Handler       { return h }

// NewLogger returns the default logger used across the engine: persistence
// resource errors, event interpreter script warnings, and AI decision traces
// all go through this instead of fmt.Println.
func NewLogger() *slog.Logger {
	return slog.New(NewPrettyHandler(os.Stderr, slog.LevelInfo))
}
