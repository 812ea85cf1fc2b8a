// Package event defines the wire protocol exchanged over websocket sessions
// and broker channels. Inbound frames decode into an exhaustive set of tagged
// variants; anything outside the enumerated types is rejected, never treated
// as a plain message.
package event

import (
	"encoding/json"
	"fmt"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
)

// Type tags every frame on the wire.
type Type string

const (
	TypeMessage     Type = "message"
	TypeTyping      Type = "typing"
	TypeReadReceipt Type = "read_receipt"
	TypeReaction    Type = "reaction"
	TypeDelete      Type = "delete_message"

	// Server-originated types.
	TypeChatCreated Type = "chat_created"
	TypeConnected   Type = "connected"
	TypeError       Type = "error"
)

// ChatChannel returns the broker channel carrying all events for a chat.
func ChatChannel(chatID string) string { return "chat:" + chatID }

// UserChannel returns the per-user broker channel (chat_created and other
// personal notifications).
func UserChannel(userID string) string { return "user:" + userID }

// UnknownTypeError reports an inbound frame whose type is outside the
// protocol. The processor answers it with an error event instead of guessing.
type UnknownTypeError struct {
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("event: unknown type %q", e.Type)
}

// Inbound is the closed set of client frames.
type Inbound interface {
	isInbound()
}

// SendMessage persists a new message in a chat.
type SendMessage struct {
	ChatID      string
	Content     *string
	MessageType chat.MessageType
	FileURL     *string
	ReplyToID   *string
}

// Typing is ephemeral and never persisted.
type Typing struct {
	ChatID   string
	IsTyping bool
}

// ReadReceipt marks a message as read.
type ReadReceipt struct {
	ChatID    string
	MessageID string
}

// Reaction toggles the sender's emoji on a message.
type Reaction struct {
	ChatID    string
	MessageID string
	Emoji     string
}

// Delete requests one of the two delete semantics.
type Delete struct {
	ChatID      string
	MessageID   string
	ForEveryone bool
}

func (SendMessage) isInbound() {}
func (Typing) isInbound()      {}
func (ReadReceipt) isInbound() {}
func (Reaction) isInbound()    {}
func (Delete) isInbound()      {}

// inboundFrame is the raw superset of client frame fields.
type inboundFrame struct {
	Type        string  `json:"type"`
	ChatID      string  `json:"chat_id"`
	Content     *string `json:"content"`
	MessageType *string `json:"message_type"`
	FileURL     *string `json:"file_url"`
	ReplyToID   *string `json:"reply_to_id"`
	IsTyping    bool    `json:"is_typing"`
	MessageID   string  `json:"message_id"`
	Emoji       string  `json:"emoji"`
	ForEveryone bool    `json:"for_everyone"`
}

// Decode parses one inbound frame into its tagged variant. A JSON error means
// the frame is malformed (drop and log); an UnknownTypeError means the frame
// parsed but names a type outside the protocol (reject explicitly).
func Decode(raw []byte) (Inbound, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("event: malformed frame: %w", err)
	}

	switch Type(f.Type) {
	case TypeMessage:
		msgType := chat.MessageTypeText
		if f.MessageType != nil && *f.MessageType != "" {
			msgType = chat.MessageType(*f.MessageType)
		}
		return SendMessage{
			ChatID:      f.ChatID,
			Content:     f.Content,
			MessageType: msgType,
			FileURL:     f.FileURL,
			ReplyToID:   f.ReplyToID,
		}, nil
	case TypeTyping:
		return Typing{ChatID: f.ChatID, IsTyping: f.IsTyping}, nil
	case TypeReadReceipt:
		return ReadReceipt{ChatID: f.ChatID, MessageID: f.MessageID}, nil
	case TypeReaction:
		return Reaction{ChatID: f.ChatID, MessageID: f.MessageID, Emoji: f.Emoji}, nil
	case TypeDelete:
		return Delete{ChatID: f.ChatID, MessageID: f.MessageID, ForEveryone: f.ForEveryone}, nil
	default:
		return nil, UnknownTypeError{Type: f.Type}
	}
}
