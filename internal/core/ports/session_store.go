package ports

import (
	"context"
	"time"

	"github.com/next-connect/next-connect/internal/core/domain"
)

// SessionStore persists session records keyed by session id.
//
// Find must return domain.ErrSessionNotFound for both missing and expired
// records so callers never see a stale session.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	Find(ctx context.Context, sid string) (*domain.Session, error)
	ClearUser(ctx context.Context, sid string) error
	Delete(ctx context.Context, sid string) error
	Prune(ctx context.Context, now time.Time) (int64, error)
}
