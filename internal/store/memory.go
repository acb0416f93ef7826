// internal/store/memory.go
//
// In-memory registry of live game sessions.
//
// Characteristics:
//   - Stores *game.Session values keyed by ID in a map.
//   - game.Session is not safe for concurrent use, so every access goes
//     through With, which holds a per-session lock while fn runs.
//   - The map itself is guarded by an RWMutex (lookups share, writes are
//     exclusive).
//   - Sessions idle past the TTL are evicted by Sweep.
//   - State is lost on restart; see Saves for durable snapshots.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/wordslide/internal/game"
)

// ErrNotFound is returned for unknown session IDs.
var ErrNotFound = errors.New("store: not found")

// Store holds live sessions for the HTTP layer.
type Store interface {
	// Put registers s under s.ID, replacing any previous entry.
	Put(ctx context.Context, owner string, s *game.Session) error

	// With runs fn with exclusive access to the session id. The owner
	// must match the one given to Put.
	With(ctx context.Context, id, owner string, fn func(*game.Session) error) error

	// Delete forgets a session owned by owner.
	Delete(ctx context.Context, id, owner string) error

	// Claim hands every session owned by from over to to and returns how
	// many moved.
	Claim(ctx context.Context, from, to string) int

	// Len returns the number of live sessions.
	Len() int
}

type entry struct {
	mu    sync.Mutex // guards s and seen
	s     *game.Session
	owner string // guarded by Memory.mu
	seen  time.Time
}

// Memory is the map-based Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewMemoryStore constructs an empty Memory store.
func NewMemoryStore() *Memory {
	return &Memory{sessions: make(map[string]*entry), now: time.Now}
}

func (m *Memory) Put(ctx context.Context, owner string, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &entry{s: s, owner: owner, seen: m.now()}
	return nil
}

func (m *Memory) With(ctx context.Context, id, owner string, fn func(*game.Session) error) error {
	m.mu.RLock()
	e, ok := m.sessions[id]
	ok = ok && e.owner == owner
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.seen = m.now()
	return fn(e.s)
}

func (m *Memory) Delete(ctx context.Context, id, owner string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok || e.owner != owner {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Memory) Claim(ctx context.Context, from, to string) int {
	if from == "" || to == "" || from == to {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.sessions {
		if e.owner == from {
			e.owner = to
			n++
		}
	}
	return n
}

func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions not touched within ttl and returns how many went.
func (m *Memory) Sweep(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		e.mu.Lock()
		stale := e.seen.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory) RunSweeper(ctx context.Context, interval, ttl time.Duration, onSweep func(int)) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Sweep(ttl); n > 0 && onSweep != nil {
				onSweep(n)
			}
		}
	}
}
