package chat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewMessage_DefaultsAndValidation(t *testing.T) {
	req := require.New(t)

	m, err := NewMessage(Message{ChatID: "c1", SenderID: "u1", Content: strPtr("  hi  ")})
	req.NoError(err)
	req.Equal("hi", *m.Content)
	req.Equal(MessageTypeText, m.Type)
	req.False(m.Timestamp.IsZero())
	req.False(m.IsRead)
	req.NotNil(m.Reactions)

	_, err = NewMessage(Message{SenderID: "u1", Content: strPtr("hi")})
	req.ErrorIs(err, ErrNoChat)

	_, err = NewMessage(Message{ChatID: "c1", SenderID: "u1", Content: strPtr("   ")})
	req.ErrorIs(err, ErrEmptyMessage)

	m, err = NewMessage(Message{ChatID: "c1", SenderID: "u1", FileURL: strPtr("https://cdn/x.png"), Type: MessageTypeImage})
	req.NoError(err)
	req.Nil(m.Content)
	req.Equal(MessageTypeImage, m.Type)
}

// The deleted type is reachable only through DeleteForEveryone; a client must
// not be able to mint it (or any unknown type) on submission.
func TestNewMessage_RejectsNonSubmittableTypes(t *testing.T) {
	req := require.New(t)

	_, err := NewMessage(Message{ChatID: "c1", SenderID: "u1", Content: strPtr("hi"), Type: MessageTypeDeleted})
	req.ErrorIs(err, ErrBadMessageType)

	_, err = NewMessage(Message{ChatID: "c1", SenderID: "u1", Content: strPtr("hi"), Type: MessageType("hologram")})
	req.ErrorIs(err, ErrBadMessageType)

	for _, typ := range []MessageType{MessageTypeText, MessageTypeImage, MessageTypeFile} {
		_, err = NewMessage(Message{ChatID: "c1", SenderID: "u1", Content: strPtr("hi"), Type: typ})
		req.NoError(err)
	}
}

func TestToggleReaction_PairwiseIdempotent(t *testing.T) {
	req := require.New(t)
	m := Message{Reactions: Reactions{}}

	active := m.ToggleReaction("👍", "alice")
	req.True(active)
	req.Equal([]string{"alice"}, m.Reactions["👍"])

	// Two consecutive toggles by the same user/emoji pair leave the user absent.
	active = m.ToggleReaction("👍", "alice")
	req.False(active)
	req.NotContains(m.Reactions, "👍")
}

func TestToggleReaction_NoDuplicateUsers(t *testing.T) {
	req := require.New(t)
	m := Message{Reactions: Reactions{}}

	m.ToggleReaction("🔥", "alice")
	m.ToggleReaction("🔥", "bob")
	m.ToggleReaction("🔥", "alice")
	m.ToggleReaction("🔥", "alice")

	users := m.Reactions["🔥"]
	req.ElementsMatch([]string{"alice", "bob"}, users)
	req.Len(users, 2)
}

func TestToggleReaction_EmptiedEntryIsRemoved(t *testing.T) {
	req := require.New(t)
	m := Message{Reactions: Reactions{}}

	m.ToggleReaction("😄", "alice")
	m.ToggleReaction("😄", "bob")
	m.ToggleReaction("😄", "alice")
	req.Equal([]string{"bob"}, m.Reactions["😄"])

	m.ToggleReaction("😄", "bob")
	req.NotContains(m.Reactions, "😄")
	req.Empty(m.Reactions)
}

func TestDeleteFor_AddOnly(t *testing.T) {
	req := require.New(t)
	m := Message{}

	req.True(m.DeleteFor("alice"))
	req.False(m.DeleteFor("alice"))
	req.True(m.DeleteFor("bob"))
	req.Equal([]string{"alice", "bob"}, m.DeletedFor)

	req.True(m.HiddenFor("alice"))
	req.False(m.HiddenFor("carol"))
}

func TestDeleteForEveryone(t *testing.T) {
	req := require.New(t)
	m := Message{SenderID: "alice", Content: strPtr("secret"), FileURL: strPtr("https://cdn/x"), Type: MessageTypeText}

	req.ErrorIs(m.DeleteForEveryone("bob"), ErrNotSender)
	req.Equal("secret", *m.Content)

	req.NoError(m.DeleteForEveryone("alice"))
	req.Equal(DeletedContent, *m.Content)
	req.Nil(m.FileURL)
	req.Equal(MessageTypeDeleted, m.Type)

	// Later transitions still work without reverting the sentinel.
	m.ToggleReaction("👍", "bob")
	req.True(m.MarkRead())
	req.Equal(DeletedContent, *m.Content)
	req.Equal(MessageTypeDeleted, m.Type)
}

func TestMarkRead_Idempotent(t *testing.T) {
	req := require.New(t)
	m := Message{}

	req.True(m.MarkRead())
	req.False(m.MarkRead())
	req.True(m.IsRead)
}
