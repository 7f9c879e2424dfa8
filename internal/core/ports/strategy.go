package ports

import (
	"context"

	"github.com/next-connect/next-connect/internal/core/domain"
)

const (
	StrategySignup = "local-signup"
	StrategySignin = "local-signin"
)

// Strategy verifies or establishes an identity from submitted credentials.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, creds domain.Credentials) AuthResult
}

// AuthResult is the outcome of a Strategy attempt. Exactly one of User,
// Message or Err is set; build it with Authenticated, Rejected or Failed.
type AuthResult struct {
	User    *domain.User
	Message string
	Err     error
}

// Authenticated is a successful attempt.
func Authenticated(user *domain.User) AuthResult {
	return AuthResult{User: user}
}

// Rejected is an authentication failure reported to the client as a message.
// It is not an error.
func Rejected(message string) AuthResult {
	return AuthResult{Message: message}
}

// Failed wraps an unexpected error, typically from storage.
func Failed(err error) AuthResult {
	return AuthResult{Err: err}
}

// OK reports whether the attempt produced an identity.
func (r AuthResult) OK() bool {
	return r.User != nil && r.Err == nil
}
