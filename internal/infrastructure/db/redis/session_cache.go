package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
	"github.com/next-connect/next-connect/internal/pkg/metrics"
)

const (
	sessionKeyPrefix = "session:"
	// MaxCacheTTL bounds how long any cached entry can outlive a missed
	// invalidation from another instance.
	MaxCacheTTL = 5 * time.Minute
)

// tombstone marks a deleted session so a racing fill cannot resurrect it.
var tombstone = []byte("-")

// CachedSessionStore is a read-through Redis cache in front of a durable
// SessionStore. Key format: session:<sid>.
//
// Writes go to the durable store first. ClearUser and Delete then overwrite
// the key (anonymous record or tombstone) rather than deleting it, and the
// read path only fills absent keys, so a lookup racing a signout never puts
// the signed-in record back. When the overwrite fails the sid is remembered
// and served from the durable store until the cache is repaired.
type CachedSessionStore struct {
	next   ports.SessionStore
	client *redis.Client
	log    zerolog.Logger
	now    func() time.Time

	mu    sync.Mutex
	stale map[string]struct{}
}

// NewCachedSessionStore wraps next with a cache backed by client.
func NewCachedSessionStore(next ports.SessionStore, client *redis.Client, log zerolog.Logger) *CachedSessionStore {
	return &CachedSessionStore{
		next:   next,
		client: client,
		log:    log,
		now:    time.Now,
		stale:  make(map[string]struct{}),
	}
}

func (s *CachedSessionStore) Create(ctx context.Context, sess *domain.Session) error {
	if err := s.next.Create(ctx, sess); err != nil {
		return err
	}
	if err := s.store(ctx, sess, false); err != nil {
		s.log.Warn().Err(err).Str("sid", sess.ID).Msg("session cache write failed")
	}
	return nil
}

func (s *CachedSessionStore) Find(ctx context.Context, sid string) (*domain.Session, error) {
	if s.isStale(sid) {
		return s.repair(ctx, sid)
	}

	data, err := s.client.Get(ctx, sessionKey(sid)).Bytes()
	switch {
	case err == nil:
		if bytes.Equal(data, tombstone) {
			metrics.SessionCacheLookupsTotal.WithLabelValues("hit").Inc()
			return nil, domain.ErrSessionNotFound
		}
		var sess domain.Session
		if jsonErr := json.Unmarshal(data, &sess); jsonErr == nil {
			if sess.Expired(s.now()) {
				if err := s.bury(ctx, sid); err != nil {
					s.log.Warn().Err(err).Str("sid", sid).Msg("session cache invalidation failed")
				}
				return nil, domain.ErrSessionNotFound
			}
			metrics.SessionCacheLookupsTotal.WithLabelValues("hit").Inc()
			return &sess, nil
		}
		s.log.Warn().Str("sid", sid).Msg("discarding undecodable cached session")
		return s.repair(ctx, sid)
	case errors.Is(err, redis.Nil):
	default:
		s.log.Warn().Err(err).Str("sid", sid).Msg("session cache read failed")
	}

	metrics.SessionCacheLookupsTotal.WithLabelValues("miss").Inc()
	sess, err := s.next.Find(ctx, sid)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, sess, true); err != nil {
		s.log.Warn().Err(err).Str("sid", sid).Msg("session cache fill failed")
	}
	return sess, nil
}

// ClearUser clears the durable record, then caches the anonymous copy.
func (s *CachedSessionStore) ClearUser(ctx context.Context, sid string) error {
	if err := s.next.ClearUser(ctx, sid); err != nil {
		return err
	}
	if _, err := s.repair(ctx, sid); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	if s.isStale(sid) {
		return fmt.Errorf("session cache: %s not invalidated", sid)
	}
	return nil
}

// Delete removes the durable record and leaves a tombstone in the cache.
func (s *CachedSessionStore) Delete(ctx context.Context, sid string) error {
	if err := s.next.Delete(ctx, sid); err != nil {
		return err
	}
	if err := s.bury(ctx, sid); err != nil {
		s.markStale(sid)
		return fmt.Errorf("session cache: %w", err)
	}
	s.clearStale(sid)
	return nil
}

// Prune only touches the durable store; cached entries expire on their own.
func (s *CachedSessionStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return s.next.Prune(ctx, now)
}

// repair reloads sid from the durable store and overwrites the cache entry
// with it. The sid stays stale until the overwrite succeeds.
func (s *CachedSessionStore) repair(ctx context.Context, sid string) (*domain.Session, error) {
	sess, err := s.next.Find(ctx, sid)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		if cacheErr := s.bury(ctx, sid); cacheErr != nil {
			s.markStale(sid)
			s.log.Warn().Err(cacheErr).Str("sid", sid).Msg("session cache invalidation failed")
		} else {
			s.clearStale(sid)
		}
		return nil, err
	case err != nil:
		s.markStale(sid)
		return nil, err
	}

	if cacheErr := s.store(ctx, sess, false); cacheErr != nil {
		s.markStale(sid)
		s.log.Warn().Err(cacheErr).Str("sid", sid).Msg("session cache invalidation failed")
	} else {
		s.clearStale(sid)
	}
	return sess, nil
}

// store caches sess. With onlyIfAbsent an existing entry always wins.
func (s *CachedSessionStore) store(ctx context.Context, sess *domain.Session, onlyIfAbsent bool) error {
	ttl := s.ttl(sess.ExpiresAt)
	if ttl <= 0 {
		return s.bury(ctx, sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if onlyIfAbsent {
		return s.client.SetNX(ctx, sessionKey(sess.ID), data, ttl).Err()
	}
	return s.client.Set(ctx, sessionKey(sess.ID), data, ttl).Err()
}

func (s *CachedSessionStore) bury(ctx context.Context, sid string) error {
	return s.client.Set(ctx, sessionKey(sid), tombstone, MaxCacheTTL).Err()
}

func (s *CachedSessionStore) ttl(expiresAt time.Time) time.Duration {
	return min(expiresAt.Sub(s.now()), MaxCacheTTL)
}

func (s *CachedSessionStore) isStale(sid string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stale[sid]
	return ok
}

func (s *CachedSessionStore) markStale(sid string) {
	s.mu.Lock()
	s.stale[sid] = struct{}{}
	s.mu.Unlock()
}

func (s *CachedSessionStore) clearStale(sid string) {
	s.mu.Lock()
	delete(s.stale, sid)
	s.mu.Unlock()
}

func sessionKey(sid string) string {
	return sessionKeyPrefix + sid
}
