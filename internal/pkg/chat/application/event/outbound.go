package event

import (
	"encoding/json"
	"time"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
)

// Outbound frames are published to broker channels or written directly to a
// session. Every frame carries its type tag and, where applicable, chat_id.

// MessageEvent is the canonical broadcast for a newly persisted message,
// carrying the server-assigned id and timestamp.
type MessageEvent struct {
	Type           Type             `json:"type"`
	ID             string           `json:"id"`
	ChatID         string           `json:"chat_id"`
	SenderID       string           `json:"sender_id"`
	Content        *string          `json:"content"`
	MessageType    chat.MessageType `json:"message_type"`
	FileURL        *string          `json:"file_url,omitempty"`
	ReplyToID      *string          `json:"reply_to_id,omitempty"`
	ReplyToContent *string          `json:"reply_to_content,omitempty"`
	Timestamp      time.Time        `json:"timestamp"`
}

// NewMessageEvent builds the broadcast frame from a persisted message.
func NewMessageEvent(m chat.Message) MessageEvent {
	return MessageEvent{
		Type:           TypeMessage,
		ID:             m.ID,
		ChatID:         m.ChatID,
		SenderID:       m.SenderID,
		Content:        m.Content,
		MessageType:    m.Type,
		FileURL:        m.FileURL,
		ReplyToID:      m.ReplyToID,
		ReplyToContent: m.ReplyToContent,
		Timestamp:      m.Timestamp,
	}
}

// TypingEvent relays an ephemeral typing indicator.
type TypingEvent struct {
	Type     Type   `json:"type"`
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// ReadReceiptEvent broadcasts that a message was read.
type ReadReceiptEvent struct {
	Type      Type   `json:"type"`
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	UserID    string `json:"user_id"`
}

// ReactionEvent broadcasts the full updated reactions map, a snapshot rather
// than a diff, so receivers never need to replay toggles.
type ReactionEvent struct {
	Type      Type           `json:"type"`
	ChatID    string         `json:"chat_id"`
	MessageID string         `json:"message_id"`
	UserID    string         `json:"user_id"`
	Emoji     string         `json:"emoji"`
	Reactions chat.Reactions `json:"reactions"`
}

// DeleteEvent broadcasts a for-everyone delete, or acknowledges a for-me
// delete to the requester only.
type DeleteEvent struct {
	Type        Type   `json:"type"`
	ChatID      string `json:"chat_id"`
	MessageID   string `json:"message_id"`
	UserID      string `json:"user_id"`
	ForEveryone bool   `json:"for_everyone"`
}

// ChatCreatedEvent is published on each member's user channel so open
// sessions subscribe to the new chat channel without reconnecting.
type ChatCreatedEvent struct {
	Type    Type    `json:"type"`
	ChatID  string  `json:"chat_id"`
	Name    *string `json:"name,omitempty"`
	IsGroup bool    `json:"is_group"`
}

// ConnectedEvent acknowledges a successful session handshake.
type ConnectedEvent struct {
	Type Type `json:"type"`
}

// Error codes reported to clients.
const (
	CodeBadRequest       = "bad_request"
	CodeNotFound         = "not_found"
	CodeUnsupportedType  = "unsupported_type"
	CodePersistenceError = "persistence_error"
	CodeForbidden        = "forbidden"
	CodeDegradedDelivery = "degraded_delivery"
)

// ErrorEvent reports a rejected or failed event back to the sender.
type ErrorEvent struct {
	Type  Type   `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// NewErrorEvent builds an error frame.
func NewErrorEvent(code, msg string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Code: code, Error: msg}
}

// Marshal serializes an outbound frame. Frames are plain structs; a marshal
// failure is a programming error and surfaces as an empty payload plus error.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// chatCreatedPeek is the minimal view the bridge needs to react to
// chat_created frames arriving on a user channel.
type chatCreatedPeek struct {
	Type   string `json:"type"`
	ChatID string `json:"chat_id"`
}

// PeekChatCreated reports the chat id if payload is a chat_created frame.
func PeekChatCreated(payload []byte) (string, bool) {
	var p chatCreatedPeek
	if err := json.Unmarshal(payload, &p); err != nil {
		return "", false
	}
	if Type(p.Type) != TypeChatCreated || p.ChatID == "" {
		return "", false
	}
	return p.ChatID, true
}
