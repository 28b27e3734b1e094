package testutil

import (
	"github.com/hmoralesp/casaflow/core"
)

// StateBuilder constructs conversation states with fluent chaining for tests.
// Example:
//
//	state := NewStateBuilder().User("hola").Assistant("¡Hola!").Entity("prop-7").Build()
type StateBuilder struct {
	messages []core.Message
	entity   string
	waiting  bool
	rawInput string
}

// NewStateBuilder creates an empty builder.
func NewStateBuilder() *StateBuilder { return &StateBuilder{} }

// User appends a user message (chainable).
func (b *StateBuilder) User(content string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(content))
	return b
}

// Assistant appends an assistant message (chainable).
func (b *StateBuilder) Assistant(content string) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(content))
	return b
}

// ToolCall appends an assistant message requesting the given calls (chainable).
func (b *StateBuilder) ToolCall(content string, calls ...core.ToolCall) *StateBuilder {
	b.messages = append(b.messages, core.NewToolCallMessage(content, calls...))
	return b
}

// ToolResult appends a tool result answering callID (chainable).
func (b *StateBuilder) ToolResult(callID, toolName, content string) *StateBuilder {
	b.messages = append(b.messages, core.NewToolResultMessage(callID, toolName, content))
	return b
}

// Entity sets the active entity identifier (chainable).
func (b *StateBuilder) Entity(id string) *StateBuilder {
	b.entity = id
	return b
}

// Waiting marks the state as waiting for user confirmation (chainable).
func (b *StateBuilder) Waiting() *StateBuilder {
	b.waiting = true
	return b
}

// RawInput sets unprocessed turn input (chainable).
func (b *StateBuilder) RawInput(text string) *StateBuilder {
	b.rawInput = text
	return b
}

// Build returns the assembled state.
func (b *StateBuilder) Build() *core.ConversationState {
	state := core.NewConversationState()
	state.Messages = append(state.Messages, b.messages...)
	state.ActiveEntityID = b.entity
	state.WaitingConfirmation = b.waiting
	state.RawInput = b.rawInput
	return state
}
