package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/set-night/lexmind/internal/domain"
)

// MemorySessionStore is the process-local store used when no database is
// configured and in tests.
type MemorySessionStore struct {
	mu      sync.RWMutex
	records map[string]domain.SessionRecord
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{records: make(map[string]domain.SessionRecord)}
}

func (s *MemorySessionStore) Upsert(_ context.Context, rec domain.SessionRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[rec.SessionID]; ok {
		if existing.UserID != rec.UserID {
			return false, nil
		}
		existing.LastMessage = rec.LastMessage
		existing.Timestamp = rec.Timestamp
		s.records[rec.SessionID] = existing
		return false, nil
	}
	s.records[rec.SessionID] = rec
	return true, nil
}

func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &rec, nil
}

func (s *MemorySessionStore) ListByUser(_ context.Context, userID string) ([]domain.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recs []domain.SessionRecord
	for _, rec := range s.records {
		if rec.UserID == userID {
			recs = append(recs, rec)
		}
	}
	sort.Slice(recs, func(i, j int) bool {
		return recs[i].Timestamp.After(recs[j].Timestamp)
	})
	return recs, nil
}

func (s *MemorySessionStore) Rename(_ context.Context, sessionID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	rec.Title = title
	s.records[sessionID] = rec
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[sessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(s.records, sessionID)
	return nil
}
