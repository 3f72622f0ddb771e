package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Hour)

	_, err := store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)

	s := New(42, "Иван")
	s.Amount = 100000
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StateAskAmount, got.State)
	assert.Equal(t, 100000.0, got.Amount)
	assert.Equal(t, "Иван", got.UserName)

	// Изменение полученной копии не меняет хранимую сессию
	got.Amount = 1
	again, err := store.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 100000.0, again.Amount)

	require.NoError(t, store.Delete(ctx, 42))
	_, err = store.Get(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, New(1, "")))
	require.NoError(t, store.Save(ctx, New(2, "")))

	now = now.Add(30 * time.Second)
	_, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, New(2, "")))

	now = now.Add(45 * time.Second)
	_, err = store.Get(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = store.Get(ctx, 2)
	assert.NoError(t, err)

	require.NoError(t, store.Save(ctx, New(3, "")))
	assert.Equal(t, 2, store.Len())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "ask_amount", StateAskAmount.String())
	assert.Equal(t, "show_schedule", StateShowSchedule.String())
	assert.Equal(t, "unknown", State(99).String())
}
