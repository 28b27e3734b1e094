package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyUpdate_RecognizedFields(t *testing.T) {
	s := NewConversationState()

	err := s.ApplyUpdate(map[string]any{
		FieldMessages:            NewAssistantMessage("done"),
		FieldActiveEntityID:      "prop-42",
		FieldWaitingConfirmation: true,
	})

	require.NoError(t, err)
	assert.Len(t, s.Messages, 1)
	assert.Equal(t, "prop-42", s.ActiveEntityID)
	assert.True(t, s.WaitingConfirmation)
}

func TestApplyUpdate_AppendsMessages(t *testing.T) {
	s := NewConversationState()
	s.AddMessage(NewUserMessage("hola"))

	err := s.ApplyUpdate(map[string]any{
		FieldMessages: []Message{NewAssistantMessage("¿en qué puedo ayudar?")},
	})

	require.NoError(t, err)
	require.Len(t, s.Messages, 2)
	assert.Equal(t, RoleUser, s.Messages[0].Role)
}

func TestApplyUpdate_NoRecognizedFields(t *testing.T) {
	s := NewConversationState()

	err := s.ApplyUpdate(map[string]any{"bogus": 1, "other": "x"})

	assert.ErrorIs(t, err, ErrNoRecognizedFields)
}

func TestApplyUpdate_IgnoresUnknownAlongsideKnown(t *testing.T) {
	s := NewConversationState()

	err := s.ApplyUpdate(map[string]any{
		"bogus":             1,
		FieldActiveEntityID: "prop-7",
	})

	require.NoError(t, err)
	assert.Equal(t, "prop-7", s.ActiveEntityID)
}

func TestApplyUpdate_TypeMismatch(t *testing.T) {
	s := NewConversationState()

	err := s.ApplyUpdate(map[string]any{FieldActiveEntityID: 42})

	assert.Error(t, err)
}

func TestApplyUpdate_PendingToolCall(t *testing.T) {
	s := NewConversationState()
	tc := NewToolCall("capture_payment", map[string]any{"amount": 100})

	require.NoError(t, s.ApplyUpdate(map[string]any{FieldPendingToolCall: tc}))
	require.NotNil(t, s.PendingToolCall)
	assert.Equal(t, "capture_payment", s.PendingToolCall.Name)

	require.NoError(t, s.ApplyUpdate(map[string]any{FieldPendingToolCall: nil}))
	assert.Nil(t, s.PendingToolCall)
}

func TestClone_Independence(t *testing.T) {
	s := NewConversationState()
	s.AddMessage(NewToolCallMessage("", NewToolCall("lookup_property", nil)))
	s.ActiveEntityID = "prop-1"

	clone := s.Clone()
	clone.AddMessage(NewUserMessage("more"))
	clone.ActiveEntityID = "prop-2"
	clone.Messages[0].ToolCalls[0].Name = "mutated"

	assert.Len(t, s.Messages, 1)
	assert.Equal(t, "prop-1", s.ActiveEntityID)
	assert.Equal(t, "lookup_property", s.Messages[0].ToolCalls[0].Name)
}

func TestRecentMessages_Bounds(t *testing.T) {
	s := NewConversationState()
	for i := 0; i < 15; i++ {
		s.AddMessage(NewUserMessage("m"))
	}

	assert.Len(t, s.RecentMessages(10), 10)
	assert.Len(t, s.RecentMessages(0), 15)
	assert.Len(t, s.RecentMessages(100), 15)
}

func TestLastAssistant(t *testing.T) {
	s := NewConversationState()
	_, ok := s.LastAssistant()
	assert.False(t, ok)

	s.AddMessage(NewAssistantMessage("first"), NewUserMessage("u"), NewAssistantMessage("second"), NewUserMessage("u2"))
	m, ok := s.LastAssistant()
	require.True(t, ok)
	assert.Equal(t, "second", m.Content)
}

func TestHandoffAction_String(t *testing.T) {
	assert.Equal(t, "complete", ActionComplete.String())
	assert.Equal(t, "redirect", ActionRedirect.String())
	assert.Equal(t, "escalate", ActionEscalate.String())
	assert.Equal(t, "error", ActionError.String())
}
