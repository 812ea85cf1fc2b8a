package repository

import (
	"context"
	"errors"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
)

// ErrNotFound signals a missing row in a typed way so callers can
// differentiate absence from transport errors.
var ErrNotFound = errors.New("repository: not found")

// ChatRepository is the persistence gateway for the chat domain. Adapters own
// connection management; callers pass a context per unit of work and never
// hold store sessions across events.
type ChatRepository interface {
	// InsertChatWithMembers creates the chat row and one membership row per
	// member atomically; a failure on any row rolls back the whole creation
	// so no chat exists with partial membership.
	InsertChatWithMembers(ctx context.Context, c chat.Chat, members []chat.ChatMembership) (string, error)

	// FindDirectChat returns the non-group chat whose member set equals
	// exactly {userA, userB}, or ErrNotFound.
	FindDirectChat(ctx context.Context, userA, userB string) (*chat.Chat, error)

	QueryMembershipsByUser(ctx context.Context, userID string) ([]chat.ChatMembership, error)
	QueryChatsByIDs(ctx context.Context, ids []string) ([]chat.Chat, error)
	ListChatMembers(ctx context.Context, chatID string) ([]string, error)

	InsertMessage(ctx context.Context, m chat.Message) (string, error)
	GetMessage(ctx context.Context, id string) (*chat.Message, error)

	// UpdateMessage writes back every mutable message field (content,
	// file_url, message_type, is_read, reactions, deleted_for_users).
	UpdateMessage(ctx context.Context, m chat.Message) error

	// QueryMessagesByChat returns the most recent messages for the chat in
	// timestamp-descending order, excluding rows hidden from viewerID.
	QueryMessagesByChat(ctx context.Context, chatID, viewerID string, limit int) ([]chat.Message, error)
}

// UserDirectory resolves user profile data owned by the auth domain. Used to
// display the other member's name on 1:1 chats.
type UserDirectory interface {
	GetProfileName(ctx context.Context, userID string) (string, error)
}
