package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

// Creation outcome reported to the caller. "existing" means the dedup search
// matched a prior 1:1 chat for the same member pair.
const (
	StatusCreated  = "created"
	StatusExisting = "existing"
)

// CreateChatInput carries the required data to open a new chat.
type CreateChatInput struct {
	Name      *string
	IsGroup   bool
	MemberIDs []string
}

// CreateChatUseCase creates group chats unconditionally and 1:1 chats
// idempotently: calling twice with the same unordered member pair returns the
// same chat.
type CreateChatUseCase struct {
	Repo repository.ChatRepository
}

func NewCreateChatUseCase(repo repository.ChatRepository) *CreateChatUseCase {
	return &CreateChatUseCase{Repo: repo}
}

// Execute persists a chat and its memberships, returning the chat and its
// creation status.
func (uc *CreateChatUseCase) Execute(ctx context.Context, in CreateChatInput) (*chat.Chat, string, error) {
	members := lo.Uniq(lo.Compact(in.MemberIDs))
	if len(members) == 0 {
		return nil, "", fmt.Errorf("members must include at least one user id")
	}
	if !in.IsGroup && len(members) != 2 {
		return nil, "", fmt.Errorf("a non-group chat requires exactly two members")
	}

	// Dedup applies only to 1:1 chats; group chats always create a new row.
	if !in.IsGroup {
		existing, err := uc.Repo.FindDirectChat(ctx, members[0], members[1])
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if existing != nil {
			return existing, StatusExisting, nil
		}
	}

	c := chat.Chat{
		IsGroup:   in.IsGroup,
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	memberships := lo.Map(members, func(uid string, _ int) chat.ChatMembership {
		return chat.ChatMembership{UserID: uid, Role: chat.MemberRoleMember}
	})
	id, err := uc.Repo.InsertChatWithMembers(ctx, c, memberships)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	c.ID = id

	return &c, StatusCreated, nil
}
