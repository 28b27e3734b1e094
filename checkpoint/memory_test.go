package checkpoint

import (
	"context"
	"testing"

	"github.com/hmoralesp/casaflow/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleState() *core.ConversationState {
	s := core.NewConversationState()
	s.AddMessage(core.NewUserMessage("hola"), core.NewAssistantMessage("¿en qué puedo ayudar?"))
	s.ActiveEntityID = "prop-42"
	s.WaitingConfirmation = true
	return s
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	saved := sampleState()

	require.NoError(t, store.Save(ctx, "sess-1", saved))
	loaded, err := store.Load(ctx, "sess-1")

	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestMemoryStore_NotFound(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Load(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_VersionIncrements(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, "sess-1", sampleState()))
	require.NoError(t, store.Save(ctx, "sess-1", sampleState()))

	assert.Equal(t, int64(2), store.checkpoints["sess-1"].Version)
}

func TestMemoryStore_CloneIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	saved := sampleState()
	require.NoError(t, store.Save(ctx, "sess-1", saved))

	// Mutating the caller's copy must not affect the stored snapshot.
	saved.AddMessage(core.NewUserMessage("extra"))
	loaded, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, loaded.Messages, 2)

	// Mutating a loaded copy must not affect subsequent loads.
	loaded.ActiveEntityID = "mutated"
	again, err := store.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "prop-42", again.ActiveEntityID)
}
