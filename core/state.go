package core

import (
	"errors"
	"fmt"
)

// StateVersion tags the ConversationState field layout. Bump when the
// recognized field set changes so stores can detect stale snapshots.
const StateVersion = 1

// Recognized state field keys. Updates produced by tools and workers address
// state through these keys; anything else is ignored by ApplyUpdate.
const (
	FieldMessages            = "messages"
	FieldRawInput            = "raw_input"
	FieldActiveEntityID      = "active_entity_id"
	FieldWaitingConfirmation = "waiting_confirmation"
	FieldPendingToolCall     = "pending_tool_call"
	FieldLastValidationError = "last_validation_error"
)

// ErrNoRecognizedFields is returned by ApplyUpdate when an update contains
// none of the recognized state fields. Propagating such an update would
// silently drop the producer's intent, so it is surfaced instead.
var ErrNoRecognizedFields = errors.New("state update contains no recognized fields")

// ConversationState is the fixed, versioned per-session field set. The
// coordinator exclusively mutates it during a turn; the router reads a
// projection and writes back only worker-contract fields.
type ConversationState struct {
	Version             int       `json:"version"`
	Messages            []Message `json:"messages"`
	RawInput            string    `json:"raw_input,omitempty"`
	ActiveEntityID      string    `json:"active_entity_id,omitempty"`
	WaitingConfirmation bool      `json:"waiting_confirmation,omitempty"`
	PendingToolCall     *ToolCall `json:"pending_tool_call,omitempty"`
	LastValidationError string    `json:"last_validation_error,omitempty"`
}

// NewConversationState returns an empty state at the current version.
func NewConversationState() *ConversationState {
	return &ConversationState{Version: StateVersion, Messages: []Message{}}
}

// Clone returns a deep copy safe for independent mutation.
func (s *ConversationState) Clone() *ConversationState {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	for i, m := range clone.Messages {
		if len(m.ToolCalls) > 0 {
			calls := make([]ToolCall, len(m.ToolCalls))
			copy(calls, m.ToolCalls)
			clone.Messages[i].ToolCalls = calls
		}
	}
	if s.PendingToolCall != nil {
		tc := *s.PendingToolCall
		clone.PendingToolCall = &tc
	}
	return &clone
}

// AddMessage appends a message to the conversation record.
func (s *ConversationState) AddMessage(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// RecentMessages returns the trailing n messages (all of them when fewer
// exist). The returned slice is a copy.
func (s *ConversationState) RecentMessages(n int) []Message {
	msgs := s.Messages
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// LastAssistant returns the most recent assistant message, if any.
func (s *ConversationState) LastAssistant() (Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i], true
		}
	}
	return Message{}, false
}

// LastMessage returns the final message in the record, if any.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// ApplyUpdate merges an update into the state. Only recognized field keys are
// applied; FieldMessages appends rather than replaces. An update carrying no
// recognized field at all returns ErrNoRecognizedFields so producers of
// malformed updates are caught rather than silently ignored.
func (s *ConversationState) ApplyUpdate(update map[string]any) error {
	applied := false
	for key, val := range update {
		switch key {
		case FieldMessages:
			msgs, err := coerceMessages(val)
			if err != nil {
				return fmt.Errorf("apply %s: %w", FieldMessages, err)
			}
			s.Messages = append(s.Messages, msgs...)
		case FieldRawInput:
			str, ok := val.(string)
			if !ok {
				return fmt.Errorf("apply %s: expected string, got %T", FieldRawInput, val)
			}
			s.RawInput = str
		case FieldActiveEntityID:
			str, ok := val.(string)
			if !ok {
				return fmt.Errorf("apply %s: expected string, got %T", FieldActiveEntityID, val)
			}
			s.ActiveEntityID = str
		case FieldWaitingConfirmation:
			b, ok := val.(bool)
			if !ok {
				return fmt.Errorf("apply %s: expected bool, got %T", FieldWaitingConfirmation, val)
			}
			s.WaitingConfirmation = b
		case FieldPendingToolCall:
			tc, err := coerceToolCall(val)
			if err != nil {
				return fmt.Errorf("apply %s: %w", FieldPendingToolCall, err)
			}
			s.PendingToolCall = tc
		case FieldLastValidationError:
			str, ok := val.(string)
			if !ok {
				return fmt.Errorf("apply %s: expected string, got %T", FieldLastValidationError, val)
			}
			s.LastValidationError = str
		default:
			continue
		}
		applied = true
	}
	if !applied {
		return ErrNoRecognizedFields
	}
	return nil
}

// HasRecognizedField reports whether the update addresses at least one
// recognized state field. Used to pre-flight tool results before merging.
func HasRecognizedField(update map[string]any) bool {
	if update == nil {
		return false
	}
	for _, key := range []string{
		FieldMessages, FieldRawInput, FieldActiveEntityID,
		FieldWaitingConfirmation, FieldPendingToolCall, FieldLastValidationError,
	} {
		if _, ok := update[key]; ok {
			return true
		}
	}
	return false
}

func coerceMessages(val any) ([]Message, error) {
	switch v := val.(type) {
	case []Message:
		return v, nil
	case Message:
		return []Message{v}, nil
	default:
		return nil, fmt.Errorf("expected Message or []Message, got %T", val)
	}
}

func coerceToolCall(val any) (*ToolCall, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case *ToolCall:
		return v, nil
	case ToolCall:
		return &v, nil
	default:
		return nil, fmt.Errorf("expected ToolCall, got %T", val)
	}
}
