package feedback

import (
	"ai-nexus/internal/apperrors"
	"ai-nexus/internal/repository/db"
	"ai-nexus/internal/repository/memory"
	"ai-nexus/internal/testutil"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	store := memory.NewStore()
	service := NewFeedbackService(store)
	ctx := context.Background()

	fb, err := service.Submit(ctx, SubmitRequest{Content: "  Love it  ", Type: "Bug", ContactInfo: "@ada"}, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Love it", fb.Content)
	assert.Equal(t, "bug", fb.Type)

	_, err = service.Submit(ctx, SubmitRequest{Content: "who am I"}, "")
	require.NoError(t, err)

	saved := store.Feedback()
	require.Len(t, saved, 2)
	assert.Equal(t, "ada@example.com", saved[0].UserEmail)
	assert.Equal(t, "@ada", saved[0].ContactInfo)
	assert.Equal(t, AnonymousEmail, saved[1].UserEmail)
	assert.Equal(t, DefaultType, saved[1].Type)
}

func TestSubmit_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  SubmitRequest
	}{
		{"empty", SubmitRequest{Content: "   "}},
		{"too long", SubmitRequest{Content: strings.Repeat("x", MaxContentLength+1)}},
		{"unknown type", SubmitRequest{Content: "hi", Type: "rant"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			_, err := NewFeedbackService(store).Submit(context.Background(), tt.req, "")
			assert.True(t, apperrors.IsInvalidInput(err))
			assert.Empty(t, store.Feedback())
		})
	}

	_, err := NewFeedbackService(memory.NewStore()).Submit(context.Background(),
		SubmitRequest{Content: strings.Repeat("é", MaxContentLength)}, "")
	assert.NoError(t, err, "the limit counts characters, not bytes")
}

func TestSubmit_StoreFailure(t *testing.T) {
	saveErr := errors.New("insert failed")
	mockDB := &testutil.MockDatabase{
		CreateFeedbackFunc: func(ctx context.Context, feedback *db.Feedback) error {
			return saveErr
		},
	}

	_, err := NewFeedbackService(mockDB).Submit(context.Background(), SubmitRequest{Content: "hi"}, "")
	assert.ErrorIs(t, err, saveErr)
}
