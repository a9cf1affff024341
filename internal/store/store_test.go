package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestJobLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	job := &Job{ID: "j1", Kind: "education-batch", Payload: `{"entries":[]}`}
	require.NoError(t, s.Create(ctx, job))

	got, err := s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, got.Status)

	require.NoError(t, s.MarkActive(ctx, "j1"))
	require.NoError(t, s.SetProgress(ctx, "j1", 2, 5))

	got, err = s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusActive, got.Status)
	assert.Equal(t, 2, got.Progress)
	assert.Equal(t, 5, got.Total)
	assert.NotNil(t, got.StartedAt)

	require.NoError(t, s.MarkCompleted(ctx, "j1", `{"success":true}`))
	got, err = s.Get(ctx, "j1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, `{"success":true}`, got.Result)
	assert.NotNil(t, got.FinishedAt)
}

func TestMarkFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &Job{ID: "j2", Kind: "student-sync"}))
	require.NoError(t, s.MarkFailed(ctx, "j2", "oturum açılamadı"))

	got, err := s.Get(ctx, "j2")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "oturum açılamadı", got.Error)
}

func TestGetUnknownJob(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "yok")
	assert.ErrorIs(t, err, ErrJobNotFound)

	err = s.MarkActive(context.Background(), "yok")
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestResetStale(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &Job{ID: "a", Kind: "education-batch"}))
	require.NoError(t, s.Create(ctx, &Job{ID: "b", Kind: "education-batch"}))
	require.NoError(t, s.MarkActive(ctx, "b"))
	require.NoError(t, s.Create(ctx, &Job{ID: "c", Kind: "education-batch"}))
	require.NoError(t, s.MarkCompleted(ctx, "c", "{}"))

	n, err := s.ResetStale(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "waiting and active jobs reset, completed ones untouched")

	got, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}
