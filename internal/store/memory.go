// internal/store/memory.go
//
// In-memory registry of live rounds.
// Rounds own goroutines (their countdown) and listeners, so they are kept as
// live *game.Round values rather than serialized.
//
// Characteristics:
//   - Keyed by Round.ID().
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Ended rounds older than a TTL can be swept with Prune.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/anagram/internal/game"
)

// ErrNotFound is returned by Get for an unknown round id.
var ErrNotFound = errors.New("round not found")

// Store defines the registry interface for live rounds.
type Store interface {
	// Save adds or replaces a round.
	Save(ctx context.Context, r *game.Round) error

	// Get retrieves a round by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Round, error)

	// Delete removes a round. Unknown ids are ignored.
	Delete(ctx context.Context, id string) error

	// Len reports how many rounds are held.
	Len() int
}

type entry struct {
	round *game.Round
	saved time.Time
}

// Memory is a map-based Store.
type Memory struct {
	mu     sync.RWMutex
	rounds map[string]entry
}

// NewMemoryStore constructs an empty in-memory Store.
func NewMemoryStore() *Memory {
	return &Memory{rounds: make(map[string]entry)}
}

// Save adds or replaces r.
func (m *Memory) Save(_ context.Context, r *game.Round) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rounds[r.ID()] = entry{round: r, saved: time.Now()}
	return nil
}

// Get looks up a round by ID.
func (m *Memory) Get(_ context.Context, id string) (*game.Round, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.rounds[id]; ok {
		return e.round, nil
	}
	return nil, ErrNotFound
}

// Delete removes a round.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rounds, id)
	return nil
}

// Len reports the number of rounds held.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rounds)
}

// Prune drops rounds that are not running and were last saved before
// cutoff. It returns how many were removed.
func (m *Memory) Prune(cutoff time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.rounds {
		if e.saved.Before(cutoff) && e.round.State() != game.StateRunning {
			delete(m.rounds, id)
			n++
		}
	}
	return n
}
