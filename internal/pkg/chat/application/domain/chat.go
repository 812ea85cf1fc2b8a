package chat

import (
	"errors"
	"time"
)

// Domain-level errors for chat behaviors
var (
	ErrNotSender      = errors.New("chat: only the original sender may delete for everyone")
	ErrEmptyMessage   = errors.New("chat: empty message (no content or file)")
	ErrNoChat         = errors.New("chat: chat_id is required")
	ErrBadMessageType = errors.New("chat: message type must be text, image or file")
)

// MemberRole expresses the role within a chat.
type MemberRole string

const (
	MemberRoleAdmin  MemberRole = "admin"
	MemberRoleMember MemberRole = "member"
)

// Chat is a conversation container, either 1:1 (non-group) or group. A
// non-group chat has exactly two members; creation enforces that no two
// distinct non-group chats share the same unordered member pair.
type Chat struct {
	ID        string    `db:"id"`
	IsGroup   bool      `db:"is_group"`
	Name      *string   `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// ChatMembership captures one user's membership in a chat.
// Primary key: (ChatID, UserID)
type ChatMembership struct {
	ChatID string     `db:"chat_id"`
	UserID string     `db:"user_id"`
	Role   MemberRole `db:"role"`
}
