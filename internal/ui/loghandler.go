package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// LogHandler is a slog.Handler that forwards formatted records to a channel
// so the UI can render them in its log pane instead of letting them corrupt
// the alternate screen. Records the channel cannot buffer are dropped.
type LogHandler struct {
	lines  chan<- string
	level  slog.Leveler
	attrs  []slog.Attr
	prefix string
}

func NewLogHandler(lines chan<- string, level slog.Leveler) *LogHandler {
	return &LogHandler{lines: lines, level: level}
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.level != nil {
		minLevel = h.level.Level()
	}

	return level >= minLevel
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder

	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format("15:04:05"))
		sb.WriteByte(' ')
	}

	fmt.Fprintf(&sb, "%-5s %s", r.Level, r.Message)

	for _, a := range h.attrs {
		appendAttr(&sb, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		a.Key = h.prefix + a.Key
		appendAttr(&sb, a)
		return true
	})

	select {
	case h.lines <- sb.String():
	default:
	}

	return nil
}

func appendAttr(sb *strings.Builder, a slog.Attr) {
	fmt.Fprintf(sb, " %s=%v", a.Key, a.Value)
}

// WithAttrs qualifies the attribute keys with the current group prefix and
// prepends them to every subsequent record.
func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = append([]slog.Attr{}, h.attrs...)

	for _, a := range attrs {
		a.Key = h.prefix + a.Key
		h2.attrs = append(h2.attrs, a)
	}

	return &h2
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	h2 := *h
	h2.prefix = h.prefix + name + "."

	return &h2
}
