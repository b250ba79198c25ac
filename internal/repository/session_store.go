package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/set-night/lexmind/internal/domain"
)

const (
	upsertSessionSQL = `
INSERT INTO chat_sessions (session_id, user_id, title, last_message, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (session_id) DO UPDATE
SET last_message = EXCLUDED.last_message,
    updated_at   = EXCLUDED.updated_at
WHERE chat_sessions.user_id = EXCLUDED.user_id
RETURNING (xmax = 0) AS inserted`

	getSessionSQL = `
SELECT session_id, user_id, title, last_message, updated_at
FROM chat_sessions
WHERE session_id = $1`

	listSessionsSQL = `
SELECT session_id, user_id, title, last_message, updated_at
FROM chat_sessions
WHERE user_id = $1
ORDER BY updated_at DESC`

	renameSessionSQL = `UPDATE chat_sessions SET title = $2 WHERE session_id = $1`

	deleteSessionSQL = `DELETE FROM chat_sessions WHERE session_id = $1`
)

// PostgresSessionStore keeps session records in the chat_sessions table.
type PostgresSessionStore struct {
	db *pgxpool.Pool
}

func NewPostgresSessionStore(db *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

func (s *PostgresSessionStore) Upsert(ctx context.Context, rec domain.SessionRecord) (bool, error) {
	var inserted bool
	err := s.db.QueryRow(ctx, upsertSessionSQL,
		rec.SessionID,
		rec.UserID,
		rec.Title,
		rec.LastMessage,
		timeToPgTimestamptz(rec.Timestamp),
	).Scan(&inserted)
	if errors.Is(err, pgx.ErrNoRows) {
		// Owned by another user; the record is left untouched.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("upsert session: %w", err)
	}
	return inserted, nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, sessionID string) (*domain.SessionRecord, error) {
	rec, err := scanRecord(s.db.QueryRow(ctx, getSessionSQL, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return rec, nil
}

func (s *PostgresSessionStore) ListByUser(ctx context.Context, userID string) ([]domain.SessionRecord, error) {
	rows, err := s.db.Query(ctx, listSessionsSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var recs []domain.SessionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		recs = append(recs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return recs, nil
}

func (s *PostgresSessionStore) Rename(ctx context.Context, sessionID, title string) error {
	tag, err := s.db.Exec(ctx, renameSessionSQL, sessionID, title)
	if err != nil {
		return fmt.Errorf("rename session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	tag, err := s.db.Exec(ctx, deleteSessionSQL, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func scanRecord(row pgx.Row) (*domain.SessionRecord, error) {
	var (
		rec       domain.SessionRecord
		updatedAt pgtype.Timestamptz
	)
	if err := row.Scan(&rec.SessionID, &rec.UserID, &rec.Title, &rec.LastMessage, &updatedAt); err != nil {
		return nil, err
	}
	rec.Timestamp = pgTimestamptzToTime(updatedAt)
	return &rec, nil
}

func pgTimestamptzToTime(ts pgtype.Timestamptz) time.Time {
	if ts.Valid {
		return ts.Time
	}
	return time.Time{}
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		t = time.Now()
	}
	return pgtype.Timestamptz{Time: t, Valid: true}
}
