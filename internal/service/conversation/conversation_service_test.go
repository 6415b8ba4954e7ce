package conversation

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/repository/memory"
	"ai-nexus/internal/testutil"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const owner = "owner@example.com"

func seedConversation(t *testing.T, store *memory.Store, id, email string, updated time.Time) {
	t.Helper()
	conv := &db.Conversation{ID: id, UserEmail: email, Model: "gemini", CreatedAt: updated, UpdatedAt: updated}
	msgs := []db.Message{
		db.NewUserMessage(id+"-u", id, "question", updated),
		db.NewAssistantMessage(id+"-a", id, "answer", "gemini", &db.Metrics{ResponseTimeMs: 10, WordCount: 1}, updated),
	}
	require.NoError(t, store.SaveExchange(context.Background(), conv, msgs))
}

func newService(store db.Database) *ConversationService {
	return NewConversationService(store, testutil.NewMockConfig(store, nil))
}

func TestGetConversation(t *testing.T) {
	store := memory.NewStore()
	now := time.Now().UTC()
	seedConversation(t, store, "c1", owner, now)
	service := newService(store)
	ctx := context.Background()

	conv, err := service.GetConversation(ctx, "c1", owner)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)

	_, err = service.GetConversation(ctx, "c1", "intruder@example.com")
	assert.True(t, apperrors.IsNotFound(err), "foreign conversations look missing")

	_, err = service.GetConversation(ctx, "nope", owner)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestGetConversation_StoreError(t *testing.T) {
	storeErr := errors.New("connection lost")
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(ctx context.Context, id string) (*db.Conversation, error) {
			return nil, storeErr
		},
	}

	_, err := newService(mockDB).GetConversation(context.Background(), "c1", owner)
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, apperrors.IsNotFound(err))
}

func TestListConversations_MostRecentFirst(t *testing.T) {
	store := memory.NewStore()
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	seedConversation(t, store, "old", owner, base)
	seedConversation(t, store, "new", owner, base.Add(time.Hour))
	seedConversation(t, store, "theirs", "other@example.com", base.Add(2*time.Hour))

	convs, err := newService(store).ListConversations(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, "new", convs[0].ID)
	assert.Equal(t, "old", convs[1].ID)
}

func TestClearConversation(t *testing.T) {
	store := memory.NewStore()
	seedConversation(t, store, "c1", owner, time.Now().UTC())
	service := newService(store)
	ctx := context.Background()

	require.NoError(t, service.ClearConversation(ctx, "c1", owner))
	conv, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, conv.Messages)

	// clearing twice is the same as clearing once
	require.NoError(t, service.ClearConversation(ctx, "c1", owner))
	conv, err = store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, conv.Messages)
}

func TestClearConversation_NoOps(t *testing.T) {
	store := memory.NewStore()
	seedConversation(t, store, "c1", owner, time.Now().UTC())
	service := newService(store)
	ctx := context.Background()

	assert.NoError(t, service.ClearConversation(ctx, "missing", owner))
	assert.NoError(t, service.ClearConversation(ctx, "c1", "intruder@example.com"))

	conv, err := store.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2, "non-owners cannot clear")
}

func TestClearConversation_StoreError(t *testing.T) {
	clearErr := errors.New("write failed")
	store := memory.NewStore()
	seedConversation(t, store, "c1", owner, time.Now().UTC())
	mockDB := &testutil.MockDatabase{
		Fallback: store,
		ClearConversationMessagesFunc: func(ctx context.Context, id string, at time.Time) error {
			return clearErr
		},
	}

	err := newService(mockDB).ClearConversation(context.Background(), "c1", owner)
	assert.ErrorIs(t, err, clearErr)
}
