package logging

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// Fields are added to every log record emitted with a context that
// carries them.
type Fields struct {
	RunID     string
	File      string
	Component string
	Iteration *int
}

// WithFields merges f into the fields already on ctx. Non-empty values in f
// win.
func WithFields(ctx context.Context, f Fields) context.Context {
	return context.WithValue(ctx, contextKey{}, merge(FieldsFrom(ctx), f))
}

// FieldsFrom returns the fields on ctx, or the zero value.
func FieldsFrom(ctx context.Context) Fields {
	if f, ok := ctx.Value(contextKey{}).(Fields); ok {
		return f
	}
	return Fields{}
}

func merge(existing, f Fields) Fields {
	out := existing
	if f.RunID != "" {
		out.RunID = f.RunID
	}
	if f.File != "" {
		out.File = f.File
	}
	if f.Component != "" {
		out.Component = f.Component
	}
	if f.Iteration != nil {
		out.Iteration = f.Iteration
	}
	return out
}

func (f Fields) attrs() []slog.Attr {
	var attrs []slog.Attr
	if f.RunID != "" {
		attrs = append(attrs, slog.String("run_id", f.RunID))
	}
	if f.File != "" {
		attrs = append(attrs, slog.String("file", f.File))
	}
	if f.Component != "" {
		attrs = append(attrs, slog.String("component", f.Component))
	}
	if f.Iteration != nil {
		attrs = append(attrs, slog.Int("iteration", *f.Iteration))
	}
	return attrs
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
