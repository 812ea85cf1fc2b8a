package chat

import (
	"strings"
	"time"

	"github.com/samber/lo"
)

// MessageType represents the kind of message content.
type MessageType string

const (
	MessageTypeText    MessageType = "text"
	MessageTypeImage   MessageType = "image"
	MessageTypeFile    MessageType = "file"
	MessageTypeDeleted MessageType = "deleted"
)

// DeletedContent replaces the content of a message deleted for everyone.
// The overwrite is irreversible; the row itself is never removed.
const DeletedContent = "This message was deleted"

// Reactions maps an emoji to the set of user ids that currently have the
// reaction active. An emoji whose last user withdraws is removed from the
// map entirely, so published snapshots carry no empty entries.
type Reactions map[string][]string

// Toggle flips userID's membership in the emoji's set and reports whether the
// user is present afterwards. The set never holds duplicates.
func (r Reactions) Toggle(emoji, userID string) bool {
	users := r[emoji]
	if lo.Contains(users, userID) {
		users = lo.Without(users, userID)
		if len(users) == 0 {
			delete(r, emoji)
		} else {
			r[emoji] = users
		}
		return false
	}
	r[emoji] = append(users, userID)
	return true
}

// Message is a persisted chat entry. Deletions are state transitions; rows
// are never physically removed.
type Message struct {
	ID             string      `db:"id"`
	ChatID         string      `db:"chat_id"`
	SenderID       string      `db:"sender_id"`
	Content        *string     `db:"content"`
	FileURL        *string     `db:"file_url"`
	Type           MessageType `db:"message_type"`
	Timestamp      time.Time   `db:"timestamp"`
	IsRead         bool        `db:"is_read"`
	Reactions      Reactions   `db:"reactions"`
	ReplyToID      *string     `db:"reply_to_id"`
	ReplyToContent *string     `db:"reply_to_content"`
	DeletedFor     []string    `db:"deleted_for_users"`
}

// NewMessage validates and normalizes an inbound message before persistence.
// The type defaults to text and the timestamp to now.
func NewMessage(m Message) (*Message, error) {
	if m.ChatID == "" {
		return nil, ErrNoChat
	}

	if m.Content != nil {
		trimmed := strings.TrimSpace(*m.Content)
		if trimmed == "" {
			m.Content = nil
		} else {
			m.Content = &trimmed
		}
	}
	if m.Content == nil && m.FileURL == nil {
		return nil, ErrEmptyMessage
	}

	switch m.Type {
	case "":
		m.Type = MessageTypeText
	case MessageTypeText, MessageTypeImage, MessageTypeFile:
	default:
		// "deleted" is a server-side transition, never a client submission.
		return nil, ErrBadMessageType
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	if m.Reactions == nil {
		m.Reactions = Reactions{}
	}
	return &m, nil
}

// MarkRead sets the read flag and reports whether it changed.
func (m *Message) MarkRead() bool {
	if m.IsRead {
		return false
	}
	m.IsRead = true
	return true
}

// ToggleReaction flips userID's reaction and reports whether it is now active.
func (m *Message) ToggleReaction(emoji, userID string) bool {
	if m.Reactions == nil {
		m.Reactions = Reactions{}
	}
	return m.Reactions.Toggle(emoji, userID)
}

// DeleteFor hides the message from userID. Add-only; reports whether the set
// grew.
func (m *Message) DeleteFor(userID string) bool {
	if lo.Contains(m.DeletedFor, userID) {
		return false
	}
	m.DeletedFor = append(m.DeletedFor, userID)
	return true
}

// DeleteForEveryone overwrites the content with the deletion sentinel and
// marks the message deleted. Only the original sender may do this.
func (m *Message) DeleteForEveryone(requesterID string) error {
	if requesterID != m.SenderID {
		return ErrNotSender
	}
	sentinel := DeletedContent
	m.Content = &sentinel
	m.FileURL = nil
	m.Type = MessageTypeDeleted
	return nil
}

// HiddenFor reports whether userID has deleted this message for themselves.
func (m *Message) HiddenFor(userID string) bool {
	return lo.Contains(m.DeletedFor, userID)
}
