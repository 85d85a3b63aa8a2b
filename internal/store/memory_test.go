package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/anagram/internal/game"
	"github.com/robalobadob/anagram/internal/words"
)

func newRound(id string) *game.Round {
	opts := []game.Option{game.WithManualTick()}
	if id != "" {
		opts = append(opts, game.WithID(id))
	}
	return game.New(words.New([]string{"planet", "plan"}), opts...)
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	_, err := m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	r := newRound("r1")
	require.NoError(t, m.Save(ctx, r))
	got, err := m.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Same(t, r, got)
	assert.Equal(t, 1, m.Len())

	require.NoError(t, m.Delete(ctx, "r1"))
	require.NoError(t, m.Delete(ctx, "r1"))
	assert.Equal(t, 0, m.Len())
}

func TestPruneKeepsRunningRounds(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	idle := newRound("idle")
	running := newRound("running")
	require.NoError(t, running.StartRound(game.Config{}))
	require.NoError(t, m.Save(ctx, idle))
	require.NoError(t, m.Save(ctx, running))

	assert.Equal(t, 0, m.Prune(time.Now().Add(-time.Hour)))
	assert.Equal(t, 1, m.Prune(time.Now().Add(time.Second)))

	_, err := m.Get(ctx, "running")
	assert.NoError(t, err)
	_, err = m.Get(ctx, "idle")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := newRound("")
			_ = m.Save(ctx, r)
			_, _ = m.Get(ctx, r.ID())
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, m.Len())
}
