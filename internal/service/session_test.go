package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
)

func TestTouchCreatesThenUpdates(t *testing.T) {
	st := newTestStack(t, nil, nil)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	st.sessions.now = func() time.Time { return t0 }

	require.NoError(t, st.sessions.Touch(ctx, "s1", "u1", "Hello world this is a long message"))
	rec, err := st.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Hello world this is ...", rec.Title)
	assert.Equal(t, "Hello world this is a long mes...", rec.LastMessage)

	st.sessions.now = func() time.Time { return t0.Add(time.Hour) }
	require.NoError(t, st.sessions.Touch(ctx, "s1", "u1", "Follow-up"))
	rec, err = st.sessions.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Hello world this is ...", rec.Title)
	assert.Equal(t, "Follow-up", rec.LastMessage)
	assert.Equal(t, t0.Add(time.Hour), rec.Timestamp)
}

func TestTouchAnonymousIsNoop(t *testing.T) {
	st := newTestStack(t, nil, nil)
	require.NoError(t, st.sessions.Touch(context.Background(), "s1", "", "hi"))
	_, err := st.sessions.Get(context.Background(), "s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestMarkResetTitlesNewRecords(t *testing.T) {
	st := newTestStack(t, nil, nil)
	ctx := context.Background()

	require.NoError(t, st.sessions.MarkReset(ctx, "s2", "u1"))
	rec, err := st.sessions.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultTitle, rec.Title)
	assert.Equal(t, config.ResetPreview, rec.LastMessage)
}

func TestDeleteEvictsConversation(t *testing.T) {
	st := newTestStack(t, nil, nil)
	ctx := context.Background()
	st.registry.GetOrCreate("s1")
	require.NoError(t, st.sessions.Touch(ctx, "s1", "u1", "hello"))

	require.NoError(t, st.sessions.Delete(ctx, "s1"))
	_, ok := st.registry.Lookup("s1")
	assert.False(t, ok)

	st.registry.GetOrCreate("s1")
	err := st.sessions.Delete(ctx, "s1")
	assert.Equal(t, domain.KindNotFound, domain.Kind(err))
	_, ok = st.registry.Lookup("s1")
	assert.False(t, ok, "conversation is evicted even without a record")
}

func TestRenameMissing(t *testing.T) {
	st := newTestStack(t, nil, nil)
	err := st.sessions.Rename(context.Background(), "nope", "Title")
	assert.Equal(t, domain.KindNotFound, domain.Kind(err))

	err = st.sessions.Rename(context.Background(), "nope", "")
	assert.Equal(t, domain.KindInvalidInput, domain.Kind(err))
}
