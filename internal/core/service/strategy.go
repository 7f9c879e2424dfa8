package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
)

const (
	MsgEmailTaken         = "That email is already taken."
	MsgInvalidCredentials = "Incorrect email or password."
)

// signupStrategy creates an account when the email is not yet taken.
type signupStrategy struct {
	users ports.UserRepository
	cost  int
	log   zerolog.Logger
	now   func() time.Time
}

// NewSignupStrategy returns the "local-signup" strategy. A non-positive
// hashCost falls back to bcrypt.DefaultCost.
func NewSignupStrategy(users ports.UserRepository, hashCost int, log zerolog.Logger) ports.Strategy {
	if hashCost <= 0 {
		hashCost = bcrypt.DefaultCost
	}
	return &signupStrategy{users: users, cost: hashCost, log: log, now: time.Now}
}

func (s *signupStrategy) Name() string { return ports.StrategySignup }

func (s *signupStrategy) Attempt(ctx context.Context, creds domain.Credentials) ports.AuthResult {
	email := domain.NormalizeEmail(creds.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil && existing != nil:
		s.log.Debug().Str("email", email).Msg("signup rejected: email taken")
		return ports.Rejected(MsgEmailTaken)
	case err != nil && !errors.Is(err, domain.ErrUserNotFound):
		return ports.Failed(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.cost)
	if err != nil {
		return ports.Failed(err)
	}

	created, err := s.users.Create(ctx, &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		// Lost a race against a concurrent signup for the same email.
		if errors.Is(err, domain.ErrUserExists) {
			return ports.Rejected(MsgEmailTaken)
		}
		return ports.Failed(err)
	}

	s.log.Info().Str("user_id", created.ID).Msg("user signed up")
	return ports.Authenticated(created)
}

// signinStrategy verifies an existing account's password.
type signinStrategy struct {
	users ports.UserRepository
	log   zerolog.Logger
}

// NewSigninStrategy returns the "local-signin" strategy.
func NewSigninStrategy(users ports.UserRepository, log zerolog.Logger) ports.Strategy {
	return &signinStrategy{users: users, log: log}
}

func (s *signinStrategy) Name() string { return ports.StrategySignin }

func (s *signinStrategy) Attempt(ctx context.Context, creds domain.Credentials) ports.AuthResult {
	email := domain.NormalizeEmail(creds.Email)

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.log.Debug().Str("email", email).Msg("signin rejected: no such user")
			return ports.Rejected(MsgInvalidCredentials)
		}
		return ports.Failed(err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		s.log.Debug().Str("user_id", user.ID).Msg("signin rejected: wrong password")
		return ports.Rejected(MsgInvalidCredentials)
	}

	return ports.Authenticated(user)
}
