package domain

import "errors"

var (
	ErrUserExists      = errors.New("user already exists")
	ErrUserNotFound    = errors.New("user not found")
	ErrSessionNotFound = errors.New("session not found")
	ErrUnauthenticated = errors.New("authentication required")
	ErrMessageNotFound = errors.New("message not found")
)
