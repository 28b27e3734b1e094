// Package model defines the completion-provider abstraction the coordinator
// generates against, normalized across vendors so orchestration logic needs
// no per-provider branching. Concrete adapters live in the openai and
// anthropic subpackages.
package model

import (
	"context"
	"fmt"

	"github.com/hmoralesp/casaflow/core"
)

// ToolSchema declaratively exposes a callable tool to the model. Parameters
// is a JSON Schema object (minimal subset).
type ToolSchema struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized model input assembled by the coordinator:
// a fixed system instruction, the sanitized message window, and the schemas
// of the tools the model may call.
type Request struct {
	Instructions string         `json:"instructions"`
	Messages     []core.Message `json:"messages"`
	Tools        []ToolSchema   `json:"tools,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is the provider's completed answer for one generation: an
// assistant message that may carry tool call requests.
type Response struct {
	Message      core.Message `json:"message"`
	FinishReason string       `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage  `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface the coordinator needs to drive generation.
// Generate must return an error rather than panic on provider failure; the
// coordinator converts errors into user-visible assistant messages.
type Model interface {
	Generate(ctx context.Context, req Request) (*Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests & examples. It
// serves scripted responses in FIFO order, falls back to canned completions
// keyed by the last message's content, and can be primed to fail.
type MockModel struct {
	info      Info
	responses map[string]string
	scripted  []Response
	err       error
}

// NewMockModel constructs a MockModel with tool support enabled.
func NewMockModel(name string) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock", SupportsTools: true},
		responses: make(map[string]string),
	}
}

// AddResponse registers a deterministic canned completion for an input text.
func (m *MockModel) AddResponse(input, response string) { m.responses[input] = response }

// Enqueue appends scripted responses returned before any canned completion.
func (m *MockModel) Enqueue(resps ...Response) { m.scripted = append(m.scripted, resps...) }

// FailWith makes every subsequent Generate return err (nil clears it).
func (m *MockModel) FailWith(err error) { m.err = err }

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.err != nil {
		return nil, m.err
	}
	if len(m.scripted) > 0 {
		resp := m.scripted[0]
		m.scripted = m.scripted[1:]
		return &resp, nil
	}

	var input string
	if len(req.Messages) > 0 {
		input = req.Messages[len(req.Messages)-1].Content
	}
	text, ok := m.responses[input]
	if !ok {
		text = fmt.Sprintf("Mock response to: %s", input)
	}
	return &Response{
		Message:      core.NewAssistantMessage(text),
		FinishReason: "stop",
	}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }

// SchemaFromRequiredArgs builds a minimal JSON Schema for a tool from its
// required argument names (optional-suffixed names become non-required
// string properties).
func SchemaFromRequiredArgs(args []string) map[string]any {
	properties := map[string]any{}
	required := []string{}
	for _, arg := range args {
		name, optional := arg, false
		if n := len(arg); n > 0 && arg[n-1] == '?' {
			name, optional = arg[:n-1], true
		}
		properties[name] = map[string]any{"type": "string"}
		if !optional {
			required = append(required, name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
