package session

import (
	"github.com/labstack/echo/v4"

	"github.com/next-connect/next-connect/internal/core/domain"
)

const (
	contextUserKey    = "session.user"
	contextSessionKey = "session.record"
	contextCookieKey  = "session.cookie_written"
)

// CurrentUser returns the authenticated user of the request, if any.
func CurrentUser(c echo.Context) (*domain.User, bool) {
	user, ok := c.Get(contextUserKey).(*domain.User)
	return user, ok && user != nil
}

// IsAuthenticated reports whether the request carries a signed-in session.
func IsAuthenticated(c echo.Context) bool {
	_, ok := CurrentUser(c)
	return ok
}

// SetUser marks the request as authenticated by user. A nil user clears it.
func SetUser(c echo.Context, user *domain.User) {
	c.Set(contextUserKey, user)
}

func currentSession(c echo.Context) *domain.Session {
	sess, _ := c.Get(contextSessionKey).(*domain.Session)
	return sess
}

func markCookieWritten(c echo.Context) {
	c.Set(contextCookieKey, true)
}

func cookieWritten(c echo.Context) bool {
	written, _ := c.Get(contextCookieKey).(bool)
	return written
}
