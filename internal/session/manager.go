// Package session binds an opaque, signed cookie to a server-side session
// record and exposes the authenticated user to downstream handlers.
package session

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
)

// CookieName is the cookie carrying the signed session id.
const CookieName = "next-connect.sid"

const defaultTTL = 30 * 24 * time.Hour

var errMissingSessionID = errors.New("session token has no id")

// Options configures a Manager.
type Options struct {
	// Secret signs session cookies. Required.
	Secret []byte
	// TTL is the fixed session lifetime. Defaults to 30 days.
	TTL time.Duration
	// Secure marks the cookie Secure (production only).
	Secure bool
	// SaveUninitialized creates an anonymous session for cookieless requests.
	SaveUninitialized bool
}

// Manager issues, restores and clears sessions.
type Manager struct {
	store ports.SessionStore
	users ports.UserRepository
	opts  Options
	log   zerolog.Logger
	now   func() time.Time
}

// NewManager returns a Manager backed by store. users resolves the identity
// bound to a restored session.
func NewManager(store ports.SessionStore, users ports.UserRepository, opts Options, log zerolog.Logger) *Manager {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	return &Manager{store: store, users: users, opts: opts, log: log, now: time.Now}
}

// Middleware restores the session named by the request cookie. Missing,
// tampered and expired sessions all leave the request anonymous.
//
// With SaveUninitialized, an anonymous session is created just before the
// response is written, unless the handler already issued or cleared one.
func (m *Manager) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sess := m.restore(c); sess == nil && m.opts.SaveUninitialized {
				c.Response().Before(func() {
					if cookieWritten(c) {
						return
					}
					if _, err := m.start(c, ""); err != nil {
						m.log.Warn().Err(err).Msg("failed to create anonymous session")
					}
				})
			}
			return next(c)
		}
	}
}

// Login binds user to a freshly issued session. The previous session, if any,
// is discarded so a pre-login session id is never promoted.
func (m *Manager) Login(c echo.Context, user *domain.User) error {
	if prev := currentSession(c); prev != nil {
		if err := m.store.Delete(c.Request().Context(), prev.ID); err != nil {
			m.log.Warn().Err(err).Str("sid", prev.ID).Msg("failed to discard previous session")
		}
	}

	if _, err := m.start(c, user.ID); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	SetUser(c, user)
	return nil
}

// Logout clears the user bound to the current session and tells the client
// to drop the cookie. Store failures are logged, never returned.
func (m *Manager) Logout(c echo.Context) {
	if sess := currentSession(c); sess != nil {
		if err := m.store.ClearUser(c.Request().Context(), sess.ID); err != nil {
			m.log.Warn().Err(err).Str("sid", sess.ID).Msg("failed to clear session user")
		}
		anonymous := *sess
		anonymous.UserID = ""
		c.Set(contextSessionKey, &anonymous)
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	markCookieWritten(c)
	SetUser(c, nil)
}

func (m *Manager) restore(c echo.Context) *domain.Session {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}

	sid, err := m.parse(cookie.Value)
	if err != nil {
		m.log.Debug().Err(err).Msg("rejected session cookie")
		return nil
	}

	ctx := c.Request().Context()
	sess, err := m.store.Find(ctx, sid)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			m.log.Warn().Err(err).Str("sid", sid).Msg("session lookup failed")
		}
		return nil
	}
	if sess.Expired(m.now()) {
		return nil
	}
	c.Set(contextSessionKey, sess)

	if sess.Anonymous() {
		return sess
	}

	user, err := m.users.FindByID(ctx, sess.UserID)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			m.log.Warn().Err(err).Str("sid", sid).Msg("session user lookup failed")
		}
		return sess
	}
	SetUser(c, user)
	return sess
}

func (m *Manager) start(c echo.Context, userID string) (*domain.Session, error) {
	now := m.now().UTC()
	sess := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.opts.TTL),
	}

	if err := m.store.Create(c.Request().Context(), sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := m.sign(sess)
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(m.opts.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Set(contextSessionKey, sess)
	markCookieWritten(c)
	return sess, nil
}

func (m *Manager) sign(sess *domain.Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        sess.ID,
		IssuedAt:  jwt.NewNumericDate(sess.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.opts.Secret)
}

func (m *Manager) parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.opts.Secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return "", err
	}
	if !tkn.Valid {
		return "", jwt.ErrTokenInvalidClaims
	}
	if claims.ID == "" {
		return "", errMissingSessionID
	}
	return claims.ID, nil
}
