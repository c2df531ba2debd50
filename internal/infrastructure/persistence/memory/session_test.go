package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/xiebiao/bookshelf/pkg/errors"
)

func TestSessionStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := NewSessionStore()
	s.now = func() time.Time { return now }

	require.NoError(t, s.SaveSession(ctx, 1, map[string]any{"user_id": 1, "role": "ADMIN"}, time.Hour))
	data, err := s.GetSession(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "1", data["user_id"])

	now = now.Add(2 * time.Hour)
	_, err = s.GetSession(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized, "会话过期")

	require.NoError(t, s.AddToBlacklist(ctx, "tok", time.Minute))
	require.NoError(t, s.AddToBlacklist(ctx, "expired", 0))
	ok, _ := s.IsInBlacklist(ctx, "tok")
	assert.True(t, ok)
	ok, _ = s.IsInBlacklist(ctx, "expired")
	assert.False(t, ok)

	now = now.Add(time.Minute)
	ok, _ = s.IsInBlacklist(ctx, "tok")
	assert.False(t, ok)
}
