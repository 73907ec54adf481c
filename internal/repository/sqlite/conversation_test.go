package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedConversation(t *testing.T, store *Store, sessionID string, createdAt time.Time) {
	t.Helper()
	err := store.Create(context.Background(), &domain.Conversation{
		SessionID: sessionID,
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "instructions"},
		},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)
}

func TestStore_CreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	stamp := createdAt.Add(time.Minute)
	err := store.Create(ctx, &domain.Conversation{
		SessionID: "sess-1",
		Messages: []domain.Message{
			{Role: domain.RoleSystem, Content: "instructions"},
			{Role: domain.RoleUser, Content: "Hello", Timestamp: &stamp},
		},
		CreatedAt: createdAt,
	})
	require.NoError(t, err)

	conv, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", conv.SessionID)
	assert.True(t, conv.CreatedAt.Equal(createdAt))
	assert.Nil(t, conv.UpdatedAt)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, domain.RoleSystem, conv.Messages[0].Role)
	require.NotNil(t, conv.Messages[1].Timestamp)
	assert.True(t, conv.Messages[1].Timestamp.Equal(stamp))
}

func TestStore_Get_NotFound(t *testing.T) {
	store := newTestStore(t)

	conv, err := store.Get(context.Background(), "missing")
	assert.Nil(t, conv)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_ReplaceMessages(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createdAt := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedConversation(t, store, "sess-1", createdAt)

	updatedAt := createdAt.Add(time.Hour)
	messages := []domain.Message{
		{Role: domain.RoleSystem, Content: "instructions"},
		{Role: domain.RoleUser, Content: "Hello"},
		{Role: domain.RoleAssistant, Content: "Hi there"},
	}
	require.NoError(t, store.ReplaceMessages(ctx, "sess-1", messages, updatedAt))

	conv, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 3)
	require.NotNil(t, conv.UpdatedAt)
	assert.True(t, conv.UpdatedAt.Equal(updatedAt))
}

func TestStore_ReplaceMessages_UnknownSession(t *testing.T) {
	store := newTestStore(t)

	err := store.ReplaceMessages(context.Background(), "missing", nil, time.Now().UTC())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_Delete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedConversation(t, store, "sess-1", time.Now().UTC())
	require.NoError(t, store.Delete(ctx, "sess-1"))

	_, err := store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting an unknown session is not an error
	assert.NoError(t, store.Delete(ctx, "missing"))
}

func TestStore_ListAll_OrdersByUpdatedAtNullsLast(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	seedConversation(t, store, "touched-old", base)
	seedConversation(t, store, "touched-new", base)
	seedConversation(t, store, "never-touched", base)

	require.NoError(t, store.ReplaceMessages(ctx, "touched-old", []domain.Message{{Role: domain.RoleSystem, Content: "instructions"}}, base.Add(time.Hour)))
	require.NoError(t, store.ReplaceMessages(ctx, "touched-new", []domain.Message{{Role: domain.RoleSystem, Content: "instructions"}}, base.Add(2*time.Hour)))

	conversations, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, conversations, 3)

	assert.Equal(t, "touched-new", conversations[0].SessionID)
	assert.Equal(t, "touched-old", conversations[1].SessionID)
	assert.Equal(t, "never-touched", conversations[2].SessionID)
}

func TestStore_Ping(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}
