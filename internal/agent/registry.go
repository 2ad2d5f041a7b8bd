package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dshills/neura/internal/providers"
)

// Handler is a context tool the model can call.
type Handler interface {
	Name() string
	Description() string
	// Schema is the JSON schema of the tool's arguments.
	Schema() map[string]any
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// Registry maps tool names to handlers. It is immutable once built.
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry validates handlers and indexes them by name. Names must be
// non-empty and unique and every handler must declare a schema.
func NewRegistry(handlers ...Handler) (*Registry, error) {
	r := &Registry{handlers: make(map[string]Handler, len(handlers))}
	var errs []error
	for i, h := range handlers {
		if h == nil {
			errs = append(errs, fmt.Errorf("handler %d is nil", i))
			continue
		}
		name := h.Name()
		switch {
		case name == "":
			errs = append(errs, fmt.Errorf("handler %d has no name", i))
			continue
		case r.handlers[name] != nil:
			errs = append(errs, fmt.Errorf("duplicate tool %q", name))
			continue
		case h.Schema() == nil:
			errs = append(errs, fmt.Errorf("tool %q has no schema", name))
			continue
		}
		r.handlers[name] = h
		r.order = append(r.order, name)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid tool registry: %w", err)
	}
	return r, nil
}

// Tools returns the tool declarations in registration order.
func (r *Registry) Tools() []providers.Tool {
	tools := make([]providers.Tool, 0, len(r.order))
	for _, name := range r.order {
		h := r.handlers[name]
		tools = append(tools, providers.Tool{Name: name, Description: h.Description(), Parameters: h.Schema()})
	}
	return tools
}

// Dispatch calls the named tool. Unknown tools and failing handlers, including
// ones that panic, become a failure result so one bad call never ends a
// session.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (res map[string]any) {
	h, ok := r.handlers[name]
	if !ok {
		return failure(fmt.Sprintf("Unknown function: %s", name))
	}
	defer func() {
		if p := recover(); p != nil {
			slog.ErrorContext(ctx, "tool handler panicked", "tool", name, "panic", p)
			res = failure(fmt.Sprintf("tool %s failed: %v", name, p))
		}
	}()
	res, err := h.Call(ctx, args)
	if err != nil {
		return failure(err.Error())
	}
	if res == nil {
		res = map[string]any{"success": true}
	}
	return res
}

func failure(msg string) map[string]any {
	return map[string]any{"success": false, "error": msg}
}
