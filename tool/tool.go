// Package tool implements the tool calling subsystem: a uniform interface
// for domain tools, a static registry of required arguments per tool, and
// the validator that checks every requested invocation before it executes.
package tool

import (
	"context"
	"fmt"
)

// Tool is the uniform interface behind which domain capabilities (property
// lookup, contract generation, payment capture, ...) are invoked. The
// orchestration core treats tools as opaque.
//
// Call returns a conversation-state update addressed by the recognized state
// field keys (see core.ApplyUpdate). Implementations should:
//   - Handle errors gracefully and return them rather than panic
//   - Be safe for concurrent use across sessions
type Tool interface {
	// Name returns the unique identifier for this tool (snake_case).
	Name() string

	// Description is surfaced to the model to guide tool selection.
	Description() string

	// Call executes the tool and returns a state update.
	Call(ctx context.Context, args map[string]any) (map[string]any, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`    // Name of the tool that failed
	Message string `json:"message"` // Error message
	Code    string `json:"code"`    // Error code for categorization
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}

// FuncTool adapts a plain Go function into a Tool. It has no internal
// mutable state after construction and is safe for concurrent use.
type FuncTool struct {
	name        string
	description string
	fn          func(ctx context.Context, args map[string]any) (map[string]any, error)
}

// NewFuncTool constructs a FuncTool from a name, description and function.
func NewFuncTool(name, description string, fn func(ctx context.Context, args map[string]any) (map[string]any, error)) *FuncTool {
	return &FuncTool{name: name, description: description, fn: fn}
}

// Name returns the tool identifier.
func (t *FuncTool) Name() string { return t.name }

// Description returns the tool description.
func (t *FuncTool) Description() string { return t.description }

// Call invokes the wrapped function.
func (t *FuncTool) Call(ctx context.Context, args map[string]any) (map[string]any, error) {
	return t.fn(ctx, args)
}

var _ Tool = (*FuncTool)(nil)
