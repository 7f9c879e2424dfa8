package service

import (
	"context"
	"errors"

	"github.com/next-connect/next-connect/internal/core/domain"
	"github.com/next-connect/next-connect/internal/core/ports"
)

// DefaultMessage is served when no message store is configured or it is empty.
const DefaultMessage = "Welcome to next-connect!"

type messageService struct {
	repo     ports.MessageRepository
	fallback string
}

// NewMessageService returns a MessageService. repo may be nil.
func NewMessageService(repo ports.MessageRepository, fallback string) ports.MessageService {
	if fallback == "" {
		fallback = DefaultMessage
	}
	return &messageService{repo: repo, fallback: fallback}
}

func (s *messageService) Latest(ctx context.Context) (*domain.Message, error) {
	if s.repo == nil {
		return &domain.Message{Text: s.fallback}, nil
	}

	msg, err := s.repo.Latest(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrMessageNotFound) {
			return &domain.Message{Text: s.fallback}, nil
		}
		return nil, err
	}
	return msg, nil
}
