package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

// ConversationView is one row of the conversations listing. For 1:1 chats the
// name is the other member's profile name, not the chat's own (usually null)
// name column.
type ConversationView struct {
	ID        string    `json:"id"`
	Name      *string   `json:"name"`
	IsGroup   bool      `json:"is_group"`
	CreatedAt time.Time `json:"created_at"`
}

// GetConversationsUseCase lists every chat the user belongs to.
type GetConversationsUseCase struct {
	Repo  repository.ChatRepository
	Users repository.UserDirectory
	Log   *slog.Logger
}

func NewGetConversationsUseCase(repo repository.ChatRepository, users repository.UserDirectory, log *slog.Logger) *GetConversationsUseCase {
	return &GetConversationsUseCase{Repo: repo, Users: users, Log: log}
}

func (uc *GetConversationsUseCase) Execute(ctx context.Context, userID string) ([]ConversationView, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	memberships, err := uc.Repo.QueryMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	ids := lo.Map(memberships, func(m chat.ChatMembership, _ int) string { return m.ChatID })

	chats, err := uc.Repo.QueryChatsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	views := make([]ConversationView, 0, len(chats))
	for _, c := range chats {
		v := ConversationView{ID: c.ID, Name: c.Name, IsGroup: c.IsGroup, CreatedAt: c.CreatedAt}
		if !c.IsGroup {
			if name, ok := uc.resolveDirectName(ctx, c.ID, userID); ok {
				v.Name = &name
			}
		}
		views = append(views, v)
	}
	return views, nil
}

// resolveDirectName looks up the other member's profile name. A directory
// failure degrades to the stored name instead of failing the listing.
func (uc *GetConversationsUseCase) resolveDirectName(ctx context.Context, chatID, userID string) (string, bool) {
	members, err := uc.Repo.ListChatMembers(ctx, chatID)
	if err != nil {
		uc.Log.Warn("list chat members failed", "chat_id", chatID, "error", err)
		return "", false
	}
	other, found := lo.Find(members, func(id string) bool { return id != userID })
	if !found {
		return "", false
	}
	name, err := uc.Users.GetProfileName(ctx, other)
	if err != nil {
		uc.Log.Warn("profile name lookup failed", "user_id", other, "error", err)
		return "", false
	}
	return name, true
}
