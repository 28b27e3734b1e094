package core

import "github.com/google/uuid"

// Role identifies the author of a Message.
type Role string

// Conversation roles. ToolResult messages use RoleTool and must reference the
// tool call that produced them via ToolCallID.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ToolCall describes a tool invocation requested by an assistant message.
// Exactly one ToolResult message is expected per call ID.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// NewToolCall creates a ToolCall with a fresh unique ID.
func NewToolCall(name string, args map[string]any) ToolCall {
	return ToolCall{ID: NewID(), Name: name, Arguments: args}
}

// Message is one entry in the ordered conversation record. The populated
// fields depend on the role:
//
//   - user/system: Content only
//   - assistant: Content and, when tools are requested, ToolCalls
//   - tool: Content plus ToolCallID and ToolName referencing the originating
//     assistant tool call
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates an assistant text message without tool calls.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewToolCallMessage creates an assistant message requesting the given tool
// calls. Content may be empty when the model emits calls without prose.
func NewToolCallMessage(content string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolResultMessage records the outcome of a previously requested tool
// call identified by callID.
func NewToolResultMessage(callID, toolName, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, ToolName: toolName}
}

// HasToolCalls reports whether this is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

// IsToolResult reports whether this message carries a tool execution result.
func (m Message) IsToolResult() bool { return m.Role == RoleTool }

// NewID generates a new unique identifier for tool calls and turns.
func NewID() string { return uuid.NewString() }
