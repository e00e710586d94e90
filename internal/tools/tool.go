package tools

import (
	"context"
	"fmt"

	"finsight/pkg/errors"
)

// Tool represents a callable capability used by workflow steps.
// Tools never touch run state; the engine records whatever they return.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short human-readable summary.
	Description() string
	// Execute performs the tool's action using the provided arguments.
	Execute(ctx context.Context, args interface{}) (interface{}, error)
}

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args interface{}) (interface{}, error)

// FunctionTool is a simple Tool implementation backed by a handler function.
type FunctionTool struct {
	name        string
	description string
	handler     HandlerFunc
}

// New creates a new function-backed Tool.
func New(name, description string, handler HandlerFunc) Tool {
	return &FunctionTool{
		name:        name,
		description: description,
		handler:     handler,
	}
}

// Name returns the tool identifier.
func (t *FunctionTool) Name() string { return t.name }

// Description returns a human description of the tool.
func (t *FunctionTool) Description() string { return t.description }

// Execute runs the underlying handler.
func (t *FunctionTool) Execute(ctx context.Context, args interface{}) (interface{}, error) {
	if t.handler == nil {
		return nil, errors.Wrapf(errors.ErrInternal, "tool %s has no handler", t.name)
	}

	return t.handler(ctx, args)
}

// Typed adapts a strongly typed function to the Tool interface.
// A mismatched argument type is an ErrInvalidInput, never a panic.
func Typed[In any, Out any](name, description string, fn func(ctx context.Context, in In) (Out, error)) Tool {
	return New(name, description, func(ctx context.Context, args interface{}) (interface{}, error) {
		in, ok := args.(In)
		if !ok {
			var zero In
			return nil, errors.Wrapf(errors.ErrInvalidInput, "%s: expected %T, got %T", name, zero, args)
		}
		return fn(ctx, in)
	})
}

// Invoke calls a tool and asserts its result type
func Invoke[Out any](ctx context.Context, t Tool, args interface{}) (Out, error) {
	var zero Out
	raw, err := t.Execute(ctx, args)
	if err != nil {
		return zero, err
	}
	out, ok := raw.(Out)
	if !ok {
		return zero, errors.Wrap(errors.ErrInvalidOutput, fmt.Sprintf("%s: expected %T, got %T", t.Name(), zero, raw))
	}
	return out, nil
}
