package app

import (
	"context"
	"sync"
	"time"

	"purchase-costing/internal/core"

	"github.com/google/uuid"
)

// draftTTL is how long an untouched draft survives before eviction. Entry
// forms are long-lived, so this is deliberately generous.
const draftTTL = 2 * time.Hour

// draftEntry pairs an editing session with its own lock. A session is
// single-writer; the entry lock serializes all access to it.
type draftEntry struct {
	mu        sync.Mutex
	session   *core.Session
	touchedAt time.Time
}

// draftStore is a thread-safe in-memory store of open drafts with TTL expiry.
type draftStore struct {
	mu     sync.Mutex
	drafts map[string]*draftEntry
}

func newDraftStore() *draftStore {
	return &draftStore{drafts: make(map[string]*draftEntry)}
}

// create opens a new draft session against the shared rate table and returns
// its id.
func (s *draftStore) create(rates *core.RateTable) string {
	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[id] = &draftEntry{
		session:   core.NewSession(rates),
		touchedAt: time.Now(),
	}
	return id
}

func (s *draftStore) get(id string) (*draftEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.drafts[id]
	if !ok {
		return nil, false
	}
	if time.Since(e.touchedAt) > draftTTL {
		delete(s.drafts, id)
		return nil, false
	}
	e.touchedAt = time.Now()
	return e, true
}

func (s *draftStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, id)
}

// each runs fn on every live entry; used after a rate refresh to recompute
// derived totals.
func (s *draftStore) each(fn func(*draftEntry)) {
	s.mu.Lock()
	entries := make([]*draftEntry, 0, len(s.drafts))
	for _, e := range s.drafts {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	for _, e := range entries {
		fn(e)
	}
}

// startPurge starts a background goroutine that evicts expired drafts every
// 15 minutes.
func (s *draftStore) startPurge(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.mu.Lock()
				for id, e := range s.drafts {
					if time.Since(e.touchedAt) > draftTTL {
						delete(s.drafts, id)
					}
				}
				s.mu.Unlock()
			}
		}
	}()
}
