package domain

import "time"

// Session is the server-side record referenced by the session cookie.
// An empty UserID means the session is anonymous.
type Session struct {
	ID        string    `json:"sid"`
	UserID    string    `json:"user_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Anonymous reports whether no user is bound to the session.
func (s *Session) Anonymous() bool {
	return s.UserID == ""
}

// Expired reports whether the session is past its expiration at now.
// A session expiring exactly at now is already expired.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
