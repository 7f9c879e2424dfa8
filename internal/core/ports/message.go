package ports

import (
	"context"

	"github.com/next-connect/next-connect/internal/core/domain"
)

// MessageRepository reads greeting messages.
type MessageRepository interface {
	Latest(ctx context.Context) (*domain.Message, error)
}

// MessageService returns the message to render on the index page.
type MessageService interface {
	Latest(ctx context.Context) (*domain.Message, error)
}
