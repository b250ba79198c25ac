package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/set-night/lexmind/internal/config"
	"github.com/set-night/lexmind/internal/domain"
)

// SessionStore persists session records. Upsert inserts rec when no record
// exists for its session id and otherwise only refreshes LastMessage and
// Timestamp, atomically. A record owned by another user is left as is.
type SessionStore interface {
	Upsert(ctx context.Context, rec domain.SessionRecord) (created bool, err error)
	Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error)
	ListByUser(ctx context.Context, userID string) ([]domain.SessionRecord, error)
	Rename(ctx context.Context, sessionID, title string) error
	Delete(ctx context.Context, sessionID string) error
}

// SessionService keeps persisted records in step with live conversations.
type SessionService struct {
	store    SessionStore
	registry *Registry
	now      func() time.Time
}

func NewSessionService(store SessionStore, registry *Registry) *SessionService {
	return &SessionService{store: store, registry: registry, now: time.Now}
}

// Touch records activity for a user-bound session. The title is derived from
// message only when the record is created.
func (s *SessionService) Touch(ctx context.Context, sessionID, userID, message string) error {
	if userID == "" {
		return nil
	}
	_, err := s.store.Upsert(ctx, domain.SessionRecord{
		SessionID:   sessionID,
		UserID:      userID,
		Title:       Ellipsize(message, config.TitleWidth),
		LastMessage: Ellipsize(message, config.PreviewWidth),
		Timestamp:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: upsert session %s: %v", domain.ErrStore, sessionID, err)
	}
	return nil
}

// MarkReset records a reset; new records are titled "New Chat".
func (s *SessionService) MarkReset(ctx context.Context, sessionID, userID string) error {
	if userID == "" {
		return nil
	}
	_, err := s.store.Upsert(ctx, domain.SessionRecord{
		SessionID:   sessionID,
		UserID:      userID,
		Title:       config.DefaultTitle,
		LastMessage: config.ResetPreview,
		Timestamp:   s.now(),
	})
	if err != nil {
		return fmt.Errorf("%w: record reset %s: %v", domain.ErrStore, sessionID, err)
	}
	return nil
}

func (s *SessionService) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	rec, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, storeError("get session", sessionID, err)
	}
	return rec, nil
}

// Exists reports whether a persisted record exists for sessionID.
func (s *SessionService) Exists(ctx context.Context, sessionID string) (bool, error) {
	_, err := s.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ListForUser returns the user's records, most recent first.
func (s *SessionService) ListForUser(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	recs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", domain.ErrStore, err)
	}
	return recs, nil
}

func (s *SessionService) Rename(ctx context.Context, sessionID, title string) error {
	if sessionID == "" || title == "" {
		return fmt.Errorf("%w: session id and title are required", domain.ErrInvalidInput)
	}
	if err := s.store.Rename(ctx, sessionID, title); err != nil {
		return storeError("rename session", sessionID, err)
	}
	return nil
}

// Delete removes the record and evicts the live conversation. The
// conversation is evicted even when no record exists.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	s.registry.Remove(sessionID)
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return storeError("delete session", sessionID, err)
	}
	return nil
}

func storeError(op, sessionID string, err error) error {
	if errors.Is(err, domain.ErrSessionNotFound) {
		return fmt.Errorf("%s %s: %w", op, sessionID, err)
	}
	return fmt.Errorf("%w: %s %s: %v", domain.ErrStore, op, sessionID, err)
}

// Ellipsize keeps the first width characters of s and marks the cut.
func Ellipsize(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width]) + "..."
}
