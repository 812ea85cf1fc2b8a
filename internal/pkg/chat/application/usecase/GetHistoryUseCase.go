package usecase

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

const defaultHistoryLimit = 50

// GetHistoryInput identifies the chat and the requesting user; messages the
// requester deleted for themselves are never returned.
type GetHistoryInput struct {
	ChatID string
	UserID string
	Limit  int
}

// GetHistoryUseCase is a pure read: no mutation, no side effect on is_read.
type GetHistoryUseCase struct {
	Repo repository.ChatRepository
}

func NewGetHistoryUseCase(repo repository.ChatRepository) *GetHistoryUseCase {
	return &GetHistoryUseCase{Repo: repo}
}

// Execute returns the most recent messages for the chat, newest first.
func (uc *GetHistoryUseCase) Execute(ctx context.Context, in GetHistoryInput) ([]chat.Message, error) {
	if in.ChatID == "" || in.UserID == "" {
		return nil, fmt.Errorf("chat_id and user_id are required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	msgs, err := uc.Repo.QueryMessagesByChat(ctx, in.ChatID, in.UserID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	// The repository filters hidden rows in SQL; keep the domain rule applied
	// here as well so alternative gateways cannot leak them.
	return lo.Filter(msgs, func(m chat.Message, _ int) bool {
		return !m.HiddenFor(in.UserID)
	}), nil
}
