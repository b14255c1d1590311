package logger

import (
	"context"
	"log/slog"
	"runtime"
)

type conditionalSourceHandler struct {
	next   slog.Handler
	levels map[slog.Level]struct{}
}

// NewConditionalSourceHandler attaches the caller location only to records at the given levels.
// The wrapped handler must be created with AddSource disabled.
func NewConditionalSourceHandler(next slog.Handler, levels ...slog.Level) slog.Handler {
	set := make(map[slog.Level]struct{}, len(levels))
	for _, l := range levels {
		set[l] = struct{}{}
	}
	return &conditionalSourceHandler{next: next, levels: set}
}

func (h *conditionalSourceHandler) Handle(ctx context.Context, r slog.Record) error {
	if _, ok := h.levels[r.Level]; ok {
		// skip runtime.Callers, Handle and the slog frame
		var pcs [1]uintptr
		runtime.Callers(3, pcs[:])
		f, _ := runtime.CallersFrames(pcs[:]).Next()
		r.AddAttrs(slog.Any(slog.SourceKey, &slog.Source{
			Function: f.Function,
			File:     f.File,
			Line:     f.Line,
		}))
	}
	return h.next.Handle(ctx, r)
}

func (h *conditionalSourceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithAttrs(attrs), levels: h.levels}
}

func (h *conditionalSourceHandler) WithGroup(name string) slog.Handler {
	return &conditionalSourceHandler{next: h.next.WithGroup(name), levels: h.levels}
}

func (h *conditionalSourceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}
