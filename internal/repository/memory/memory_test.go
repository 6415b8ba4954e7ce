package memory

import (
	"ai-nexus/internal/repository/db"
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, email string, credits int) {
	t.Helper()
	require.NoError(t, s.CreateUser(context.Background(), &db.User{Email: email, Credits: credits, PasswordHash: "hash"}))
}

func TestCreateUser_Duplicate(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "a@example.com", 1)

	err := s.CreateUser(context.Background(), &db.User{Email: "a@example.com"})
	assert.ErrorIs(t, err, db.ErrAlreadyExists)
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	_, err := NewStore().GetUserByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDebitCredit_NeverNegative(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seedUser(t, s, "a@example.com", 1)

	ok, err := s.DebitCredit(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.DebitCredit(ctx, "a@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	user, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Credits)
}

func TestDebitCredit_ConcurrentSingleCredit(t *testing.T) {
	s := NewStore()
	seedUser(t, s, "a@example.com", 1)

	var successes int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := s.DebitCredit(context.Background(), "a@example.com"); ok {
				atomic.AddInt32(&successes, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes)
}

func TestSaveExchange_AppendsInOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	conv := &db.Conversation{ID: "c1", UserEmail: "a@example.com", Model: "gemini", CreatedAt: now, UpdatedAt: now}

	first := []db.Message{
		db.NewUserMessage("m1", "c1", "hi", now),
		db.NewAssistantMessage("m2", "c1", "hello", "gemini", &db.Metrics{ResponseTimeMs: 10}, now),
	}
	require.NoError(t, s.SaveExchange(ctx, conv, first))

	second := []db.Message{
		db.NewUserMessage("m3", "c1", "again", now.Add(time.Second)),
		db.NewAssistantMessage("m4", "c1", "sure", "gemini", nil, now.Add(time.Second)),
	}
	require.NoError(t, s.SaveExchange(ctx, conv, second))

	stored, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	ids := make([]string, 0, len(stored.Messages))
	for _, m := range stored.Messages {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"}, ids)
}

func TestGetConversation_ReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	conv := &db.Conversation{ID: "c1", UserEmail: "a@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.SaveExchange(ctx, conv, []db.Message{
		db.NewAssistantMessage("m1", "c1", "x", "gemini", &db.Metrics{WordCount: 1}, now),
	}))

	loaded, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	loaded.Messages[0].Reply.Metrics.WordCount = 99
	loaded.Messages = append(loaded.Messages, db.NewUserMessage("m2", "c1", "y", now))

	reloaded, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, reloaded.Messages, 1)
	assert.Equal(t, 1, reloaded.Messages[0].Metrics().WordCount)
}

func TestGetConversationsByUserEmail_OrderedByUpdatedDesc(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "mid"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		conv := &db.Conversation{ID: id, UserEmail: "a@example.com", CreatedAt: base, UpdatedAt: base.Add(offsets[i])}
		require.NoError(t, s.SaveExchange(ctx, conv, nil))
	}
	require.NoError(t, s.SaveExchange(ctx, &db.Conversation{ID: "other", UserEmail: "b@example.com", UpdatedAt: base}, nil))

	convs, err := s.GetConversationsByUserEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, convs, 3)
	assert.Equal(t, "new", convs[0].ID)
	assert.Equal(t, "mid", convs[1].ID)
	assert.Equal(t, "old", convs[2].ID)
}

func TestGetConversationsByUserEmail_EqualTimestampsOrderedByID(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, id := range []string{"c3", "c1", "c4", "c2"} {
		require.NoError(t, s.SaveExchange(ctx, &db.Conversation{ID: id, UserEmail: "a@example.com", CreatedAt: at, UpdatedAt: at}, nil))
	}

	for i := 0; i < 20; i++ {
		convs, err := s.GetConversationsByUserEmail(ctx, "a@example.com")
		require.NoError(t, err)
		ids := make([]string, len(convs))
		for j, c := range convs {
			ids[j] = c.ID
		}
		assert.Equal(t, []string{"c1", "c2", "c3", "c4"}, ids)
	}
}

func TestClearConversationMessages(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	now := time.Now().UTC()
	conv := &db.Conversation{ID: "c1", UserEmail: "a@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.SaveExchange(ctx, conv, []db.Message{db.NewUserMessage("m1", "c1", "hi", now)}))

	later := now.Add(time.Minute)
	require.NoError(t, s.ClearConversationMessages(ctx, "c1", later))

	stored, err := s.GetConversation(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, stored.Messages)
	assert.True(t, stored.UpdatedAt.Equal(later))

	assert.ErrorIs(t, s.ClearConversationMessages(ctx, "missing", later), db.ErrNotFound)
}

func TestAssistantMessages_FilteredAndSorted(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	t0 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveExchange(ctx, &db.Conversation{ID: "c1", UserEmail: "a@example.com"}, []db.Message{
		db.NewUserMessage("u1", "c1", "q", t0),
		db.NewAssistantMessage("a2", "c1", "late", "gemini", nil, t0.Add(2*time.Minute)),
	}))
	require.NoError(t, s.SaveExchange(ctx, &db.Conversation{ID: "c2", UserEmail: "b@example.com"}, []db.Message{
		db.NewAssistantMessage("a1", "c2", "early", "grok", nil, t0.Add(time.Minute)),
	}))

	mine, err := s.GetAssistantMessagesByOwnerEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a2", mine[0].ID)

	all, err := s.GetAllAssistantMessages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a1", all[0].ID)
	assert.Equal(t, "a2", all[1].ID)
}

func TestCreateFeedback(t *testing.T) {
	s := NewStore()
	fb := &db.Feedback{UserEmail: "anonymous", Content: "nice", Type: "suggestion"}
	require.NoError(t, s.CreateFeedback(context.Background(), fb))

	assert.NotEmpty(t, fb.ID)
	assert.Len(t, s.Feedback(), 1)
}
