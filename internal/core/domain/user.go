package domain

import (
	"strings"
	"time"
)

// User models an account that can sign in.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Credentials is the email/password pair submitted to signup and signin.
type Credentials struct {
	Email    string
	Password string
}

// NormalizeEmail trims and lower-cases an email so lookups and the unique
// index agree on a single spelling.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
