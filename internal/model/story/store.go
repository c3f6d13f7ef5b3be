package story

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store keeps per-session chapter timelines in memory. All read-modify-write
// sequences run under one mutex so chapter numbers stay unique and contiguous
// even when requests race on the same session.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*sessionRecord
}

type sessionRecord struct {
	chapters   []Chapter
	lastActive time.Time
}

// NewStore bootstraps the in-memory session store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*sessionRecord)}
}

// getOrCreate returns the session record, lazily creating it and refreshing
// its activity timestamp. Callers must hold s.mu.
func (s *Store) getOrCreate(sessionID string) *sessionRecord {
	record, ok := s.sessions[sessionID]
	if !ok {
		record = &sessionRecord{}
		s.sessions[sessionID] = record
	}
	record.lastActive = time.Now().UTC()
	return record
}

// Append stores a new chapter at the end of the session timeline. The chapter
// number is assigned under the lock, so two racing appends never share one.
func (s *Store) Append(sessionID string, draft Draft) Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreate(sessionID)
	chapter := Chapter{
		ID:            uuid.NewString(),
		ImageURL:      draft.ImageURL,
		Narrative:     draft.Narrative,
		Connections:   append([]string(nil), draft.Connections...),
		Tags:          append([]string(nil), draft.Tags...),
		ChapterNumber: len(record.chapters) + 1,
		CreatedAt:     time.Now().UTC(),
	}
	record.chapters = append(record.chapters, chapter)
	return chapter
}

// List returns the session's chapters in ascending chapter-number order. A
// read counts as activity; unknown sessions get an empty record on the spot,
// which the sweeper reclaims if nothing else happens.
func (s *Store) List(sessionID string) []Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreate(sessionID)
	copied := make([]Chapter, len(record.chapters))
	copy(copied, record.chapters)
	return copied
}

// Clear drops every chapter of the session while keeping the session record,
// so the next append starts back at chapter one.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.getOrCreate(sessionID)
	record.chapters = nil
}

// SweepExpired removes sessions idle longer than timeout and reports how many
// were dropped.
func (s *Store) SweepExpired(now time.Time, timeout time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for sessionID, record := range s.sessions {
		if now.Sub(record.lastActive) > timeout {
			delete(s.sessions, sessionID)
			removed++
			log.Printf("[sweep] removed expired session %s", sessionID)
		}
	}
	return removed
}

// StartSweeper runs the periodic expiry sweep until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context, interval, timeout time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if removed := s.SweepExpired(time.Now().UTC(), timeout); removed > 0 {
					log.Printf("[sweep] cleaned up %d expired sessions", removed)
				}
			}
		}
	}()
}
