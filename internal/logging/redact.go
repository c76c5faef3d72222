package logging

import (
	"context"
	"fmt"
	"log/slog"
)

// Redactor masks sensitive text. *redaction.Redactor satisfies it.
type Redactor interface {
	RedactString(s string) string
}

// RedactingHandler wraps another handler and passes the message and every
// attribute through a Redactor before delegating. Non-string values are
// formatted with fmt; a value whose formatted text changes under redaction
// is logged as the redacted string, others keep their original form.
type RedactingHandler struct {
	inner    slog.Handler
	redactor Redactor
}

// NewRedactingHandler returns a handler that redacts records for inner.
func NewRedactingHandler(inner slog.Handler, r Redactor) *RedactingHandler {
	return &RedactingHandler{inner: inner, redactor: r}
}

func (h *RedactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactingHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.RedactString(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.attr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *RedactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	red := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		red[i] = h.attr(a)
	}
	return &RedactingHandler{inner: h.inner.WithAttrs(red), redactor: h.redactor}
}

func (h *RedactingHandler) WithGroup(name string) slog.Handler {
	return &RedactingHandler{inner: h.inner.WithGroup(name), redactor: h.redactor}
}

func (h *RedactingHandler) attr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.RedactString(v.String()))
	case slog.KindGroup:
		group := v.Group()
		red := make([]any, len(group))
		for i, g := range group {
			red[i] = h.attr(g)
		}
		return slog.Group(a.Key, red...)
	case slog.KindAny:
		var text string
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, h.redactor.RedactString(x.Error()))
		case []byte:
			text = string(x)
		default:
			text = fmt.Sprint(x)
		}
		if red := h.redactor.RedactString(text); red != text {
			return slog.String(a.Key, red)
		}
		return slog.Attr{Key: a.Key, Value: v}
	default:
		return slog.Attr{Key: a.Key, Value: v}
	}
}
