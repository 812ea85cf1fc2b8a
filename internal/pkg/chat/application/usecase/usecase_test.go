package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

type fakeRepo struct {
	chats       map[string]chat.Chat
	memberships []chat.ChatMembership
	messages    []chat.Message
	nextID      int

	membershipsErr error
	insertChatErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{chats: make(map[string]chat.Chat)}
}

func (r *fakeRepo) InsertChatWithMembers(ctx context.Context, c chat.Chat, members []chat.ChatMembership) (string, error) {
	if r.insertChatErr != nil {
		return "", r.insertChatErr
	}
	r.nextID++
	id := fmt.Sprintf("c%d", r.nextID)
	c.ID = id
	r.chats[id] = c
	for _, m := range members {
		m.ChatID = id
		r.memberships = append(r.memberships, m)
	}
	return id, nil
}

func (r *fakeRepo) FindDirectChat(ctx context.Context, userA, userB string) (*chat.Chat, error) {
	for id, c := range r.chats {
		if c.IsGroup {
			continue
		}
		members, _ := r.ListChatMembers(ctx, id)
		if len(members) == 2 && lo.Contains(members, userA) && lo.Contains(members, userB) {
			cp := c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) QueryMembershipsByUser(ctx context.Context, userID string) ([]chat.ChatMembership, error) {
	if r.membershipsErr != nil {
		return nil, r.membershipsErr
	}
	return lo.Filter(r.memberships, func(m chat.ChatMembership, _ int) bool {
		return m.UserID == userID
	}), nil
}

func (r *fakeRepo) QueryChatsByIDs(ctx context.Context, ids []string) ([]chat.Chat, error) {
	var out []chat.Chat
	for _, id := range ids {
		if c, ok := r.chats[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListChatMembers(ctx context.Context, chatID string) ([]string, error) {
	var out []string
	for _, m := range r.memberships {
		if m.ChatID == chatID {
			out = append(out, m.UserID)
		}
	}
	return out, nil
}

func (r *fakeRepo) InsertMessage(ctx context.Context, m chat.Message) (string, error) {
	r.nextID++
	m.ID = fmt.Sprintf("m%d", r.nextID)
	r.messages = append(r.messages, m)
	return m.ID, nil
}

func (r *fakeRepo) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	for _, m := range r.messages {
		if m.ID == id {
			cp := m
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeRepo) UpdateMessage(ctx context.Context, m chat.Message) error {
	for i := range r.messages {
		if r.messages[i].ID == m.ID {
			r.messages[i] = m
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeRepo) QueryMessagesByChat(ctx context.Context, chatID, viewerID string, limit int) ([]chat.Message, error) {
	visible := lo.Filter(r.messages, func(m chat.Message, _ int) bool {
		return m.ChatID == chatID && !m.HiddenFor(viewerID)
	})
	// Newest first, as the gateway contract requires.
	for i, j := 0, len(visible)-1; i < j; i, j = i+1, j-1 {
		visible[i], visible[j] = visible[j], visible[i]
	}
	if len(visible) > limit {
		visible = visible[:limit]
	}
	return visible, nil
}

type fakeDirectory struct {
	names map[string]string
	err   error
}

func (d *fakeDirectory) GetProfileName(ctx context.Context, userID string) (string, error) {
	if d.err != nil {
		return "", d.err
	}
	name, ok := d.names[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return name, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ===================== CreateChat =====================

func TestCreateChat_DirectChatIsDeduped(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	uc := NewCreateChatUseCase(repo)
	ctx := context.Background()

	first, status, err := uc.Execute(ctx, CreateChatInput{MemberIDs: []string{"alice", "bob"}})
	req.NoError(err)
	req.Equal(StatusCreated, status)

	// Same unordered pair, reversed order: same chat, no new row.
	second, status, err := uc.Execute(ctx, CreateChatInput{MemberIDs: []string{"bob", "alice"}})
	req.NoError(err)
	req.Equal(StatusExisting, status)
	req.Equal(first.ID, second.ID)
	req.Len(repo.chats, 1)
}

func TestCreateChat_GroupSkipsDedup(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	uc := NewCreateChatUseCase(repo)
	ctx := context.Background()
	name := "plans"

	first, status, err := uc.Execute(ctx, CreateChatInput{Name: &name, IsGroup: true, MemberIDs: []string{"alice", "bob", "carol"}})
	req.NoError(err)
	req.Equal(StatusCreated, status)

	second, status, err := uc.Execute(ctx, CreateChatInput{Name: &name, IsGroup: true, MemberIDs: []string{"alice", "bob", "carol"}})
	req.NoError(err)
	req.Equal(StatusCreated, status)
	req.NotEqual(first.ID, second.ID)
}

func TestCreateChat_MembershipsGetMemberRole(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	uc := NewCreateChatUseCase(repo)

	c, _, err := uc.Execute(context.Background(), CreateChatInput{MemberIDs: []string{"alice", "bob", "alice"}})
	req.NoError(err)

	members, _ := repo.ListChatMembers(context.Background(), c.ID)
	req.ElementsMatch([]string{"alice", "bob"}, members)
	for _, m := range repo.memberships {
		req.Equal(chat.MemberRoleMember, m.Role)
	}
}

func TestCreateChat_Validation(t *testing.T) {
	req := require.New(t)
	uc := NewCreateChatUseCase(newFakeRepo())
	ctx := context.Background()

	_, _, err := uc.Execute(ctx, CreateChatInput{})
	req.Error(err)

	_, _, err = uc.Execute(ctx, CreateChatInput{MemberIDs: []string{"alice", "bob", "carol"}})
	req.Error(err)
}

// Chat and memberships are written through one atomic gateway call, so a
// failed create leaves neither a chat row nor partial membership behind.
func TestCreateChat_FailedCreateLeavesNoPartialState(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	repo.insertChatErr = errors.New("db down")
	uc := NewCreateChatUseCase(repo)

	_, _, err := uc.Execute(context.Background(), CreateChatInput{MemberIDs: []string{"alice", "bob"}})
	req.ErrorIs(err, ErrPersistence)
	req.Empty(repo.chats)
	req.Empty(repo.memberships)
}

// ===================== GetHistory =====================

func seedMessages(repo *fakeRepo, chatID string, n int) {
	for i := 0; i < n; i++ {
		content := fmt.Sprintf("msg %d", i)
		_, _ = repo.InsertMessage(context.Background(), chat.Message{
			ChatID:    chatID,
			SenderID:  "alice",
			Content:   &content,
			Type:      chat.MessageTypeText,
			Timestamp: time.Now().Add(time.Duration(i) * time.Second),
		})
	}
}

func TestGetHistory_ExcludesMessagesDeletedForRequester(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	seedMessages(repo, "c1", 3)
	repo.messages[1].DeletedFor = []string{"bob"}

	uc := NewGetHistoryUseCase(repo)
	msgs, err := uc.Execute(context.Background(), GetHistoryInput{ChatID: "c1", UserID: "bob"})
	req.NoError(err)
	req.Len(msgs, 2)
	for _, m := range msgs {
		req.False(m.HiddenFor("bob"))
	}

	// Another member still sees the full history.
	msgs, err = uc.Execute(context.Background(), GetHistoryInput{ChatID: "c1", UserID: "alice"})
	req.NoError(err)
	req.Len(msgs, 3)
}

func TestGetHistory_DefaultLimitAndOrder(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	seedMessages(repo, "c1", 60)

	uc := NewGetHistoryUseCase(repo)
	msgs, err := uc.Execute(context.Background(), GetHistoryInput{ChatID: "c1", UserID: "alice"})
	req.NoError(err)
	req.Len(msgs, 50)
	req.Equal("msg 59", *msgs[0].Content)

	msgs, err = uc.Execute(context.Background(), GetHistoryInput{ChatID: "c1", UserID: "alice", Limit: 5})
	req.NoError(err)
	req.Len(msgs, 5)
}

func TestGetHistory_Validation(t *testing.T) {
	req := require.New(t)
	uc := NewGetHistoryUseCase(newFakeRepo())

	_, err := uc.Execute(context.Background(), GetHistoryInput{ChatID: "c1"})
	req.Error(err)
}

// ===================== GetConversations =====================

func TestGetConversations_ResolvesDirectChatNames(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	create := NewCreateChatUseCase(repo)
	ctx := context.Background()

	direct, _, err := create.Execute(ctx, CreateChatInput{MemberIDs: []string{"alice", "bob"}})
	req.NoError(err)
	groupName := "plans"
	group, _, err := create.Execute(ctx, CreateChatInput{Name: &groupName, IsGroup: true, MemberIDs: []string{"alice", "bob", "carol"}})
	req.NoError(err)

	dir := &fakeDirectory{names: map[string]string{"bob": "Bob Builder"}}
	uc := NewGetConversationsUseCase(repo, dir, discardLogger())

	views, err := uc.Execute(ctx, "alice")
	req.NoError(err)
	req.Len(views, 2)

	byID := lo.KeyBy(views, func(v ConversationView) string { return v.ID })
	req.Equal("Bob Builder", *byID[direct.ID].Name)
	req.False(byID[direct.ID].IsGroup)
	req.Equal("plans", *byID[group.ID].Name)
	req.True(byID[group.ID].IsGroup)
}

func TestGetConversations_DirectoryFailureDegradesToStoredName(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	create := NewCreateChatUseCase(repo)
	ctx := context.Background()

	_, _, err := create.Execute(ctx, CreateChatInput{MemberIDs: []string{"alice", "bob"}})
	req.NoError(err)

	dir := &fakeDirectory{err: errors.New("directory down")}
	uc := NewGetConversationsUseCase(repo, dir, discardLogger())

	views, err := uc.Execute(ctx, "alice")
	req.NoError(err)
	req.Len(views, 1)
	req.Nil(views[0].Name)
}

func TestGetConversations_PersistenceErrorWrapped(t *testing.T) {
	req := require.New(t)
	repo := newFakeRepo()
	repo.membershipsErr = errors.New("db down")

	uc := NewGetConversationsUseCase(repo, &fakeDirectory{}, discardLogger())
	_, err := uc.Execute(context.Background(), "alice")
	req.ErrorIs(err, ErrPersistence)
}
