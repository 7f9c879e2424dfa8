package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/next-connect/next-connect/internal/core/domain"
)

// SessionStore persists sessions in the sessions table. Rows past
// expires_at are invisible to Find and removed by Prune.
type SessionStore struct {
	db DBTX
}

func NewSessionStore(db DBTX) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) Create(ctx context.Context, sess *domain.Session) error {
	query :=
		`INSERT INTO sessions (sid, user_id, expires_at, created_at)
		 VALUES ($1, $2, $3, $4)`

	if _, err := s.db.ExecContext(ctx, query, sess.ID, nullable(sess.UserID), sess.ExpiresAt, sess.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SessionStore) Find(ctx context.Context, sid string) (*domain.Session, error) {
	query :=
		`SELECT sid, user_id, expires_at, created_at FROM sessions
		 WHERE sid = $1 AND expires_at > NOW()`

	var (
		sess   domain.Session
		userID sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, sid).Scan(&sess.ID, &userID, &sess.ExpiresAt, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	sess.UserID = userID.String
	return &sess, nil
}

func (s *SessionStore) ClearUser(ctx context.Context, sid string) error {
	query :=
		`UPDATE sessions SET user_id = NULL
		 WHERE sid = $1`

	if _, err := s.db.ExecContext(ctx, query, sid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(ctx context.Context, sid string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = $1`, sid); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (s *SessionStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
