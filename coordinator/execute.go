package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hmoralesp/casaflow/core"
)

// execute runs the tool calls requested by the last assistant message.
// Every call is validated first. The first invalid call rejects the whole
// batch: the validation error is recorded on the state, a single synthetic
// tool result describing the rejection is appended, and no further calls
// run. Valid calls execute with panic recovery; their state updates are
// merged and a tool result is appended per call.
func (c *Coordinator) execute(ctx context.Context, t *turn) {
	last, ok := t.state.LastMessage()
	if !ok || !last.HasToolCalls() {
		return
	}

	for _, call := range last.ToolCalls {
		valid, reason := c.validator.Validate(call.Name, call.Arguments)
		if !valid {
			t.log.Warn("tool call rejected", "tool", call.Name, "reason", reason)
			t.state.LastValidationError = reason
			t.state.AddMessage(core.NewToolResultMessage(call.ID, call.Name,
				fmt.Sprintf("call rejected: %s", reason)))
			return
		}

		content, update := c.runTool(ctx, t, call)

		// The tool result must directly answer the pending call; merging the
		// update first could interleave messages and orphan the result.
		t.state.AddMessage(core.NewToolResultMessage(call.ID, call.Name, content))
		if update != nil {
			if err := t.state.ApplyUpdate(update); err != nil && !errors.Is(err, core.ErrNoRecognizedFields) {
				t.log.Error("state update rejected", "tool", call.Name, "error", err.Error())
			}
		}
	}
}

// runTool executes a single validated call and returns the tool result
// content plus the state update to merge. Tool errors and panics become
// diagnostic content rather than aborting the turn.
func (c *Coordinator) runTool(ctx context.Context, t *turn, call core.ToolCall) (string, map[string]any) {
	impl, ok := c.tools[call.Name]
	if !ok {
		return fmt.Sprintf("tool %q is not available", call.Name), nil
	}

	start := time.Now()
	update, err := safeCall(ctx, impl.Call, call.Arguments)
	t.log.LogToolCall(call.Name, time.Since(start), err)
	if err != nil {
		return fmt.Sprintf("tool %q failed: %s", call.Name, err.Error()), nil
	}

	if len(update) == 0 {
		return fmt.Sprintf("tool %q returned no result", call.Name), nil
	}

	return marshalUpdate(update), update
}

// safeCall shields the turn from panicking tool implementations.
func safeCall(ctx context.Context, fn func(ctx context.Context, args map[string]any) (map[string]any, error), args map[string]any) (update map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			update = nil
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return fn(ctx, args)
}

func marshalUpdate(update map[string]any) string {
	raw, err := json.Marshal(update)
	if err != nil {
		return fmt.Sprintf("%v", update)
	}
	return string(raw)
}
