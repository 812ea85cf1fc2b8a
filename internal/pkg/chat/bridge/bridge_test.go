package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
)

type fakeSub struct {
	mu       sync.Mutex
	channels map[string]struct{}
	events   chan bport.Message
	closed   bool
}

func newFakeSub(channels ...string) *fakeSub {
	s := &fakeSub{channels: make(map[string]struct{}), events: make(chan bport.Message, 16)}
	for _, ch := range channels {
		s.channels[ch] = struct{}{}
	}
	return s
}

func (s *fakeSub) Events() <-chan bport.Message { return s.events }

func (s *fakeSub) Subscribe(ctx context.Context, channels ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range channels {
		s.channels[ch] = struct{}{}
	}
	return nil
}

func (s *fakeSub) Unsubscribe(ctx context.Context, channels ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range channels {
		delete(s.channels, ch)
	}
	return nil
}

func (s *fakeSub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.events)
	}
	return nil
}

func (s *fakeSub) has(channel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.channels[channel]
	return ok
}

// publish delivers only if the channel is subscribed, like a real broker.
func (s *fakeSub) publish(channel string, payload []byte) {
	s.mu.Lock()
	_, ok := s.channels[channel]
	closed := s.closed
	s.mu.Unlock()
	if ok && !closed {
		s.events <- bport.Message{Channel: channel, Payload: payload}
	}
}

type fakeBroker struct {
	sub *fakeSub
	err error
}

func (b *fakeBroker) Publish(ctx context.Context, channel string, payload []byte) error { return nil }

func (b *fakeBroker) Subscribe(ctx context.Context, channels ...string) (bport.Subscription, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.sub = newFakeSub(channels...)
	return b.sub, nil
}

func (b *fakeBroker) Ping(ctx context.Context) error { return nil }
func (b *fakeBroker) Close() error                   { return nil }

type fakeMembers struct {
	chats []string
	err   error
}

func (m *fakeMembers) QueryMembershipsByUser(ctx context.Context, userID string) ([]chat.ChatMembership, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []chat.ChatMembership
	for _, id := range m.chats {
		out = append(out, chat.ChatMembership{ChatID: id, UserID: userID, Role: chat.MemberRoleMember})
	}
	return out, nil
}

type fakeSink struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *fakeSink) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func (s *fakeSink) last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[len(s.payloads)-1]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestOpen_SubscribesMembershipAndUserChannels(t *testing.T) {
	req := require.New(t)
	broker := &fakeBroker{}
	members := &fakeMembers{chats: []string{"c1", "c2"}}

	b, err := Open(context.Background(), broker, members, "alice", &fakeSink{}, discardLogger())
	req.NoError(err)
	defer b.Close()

	req.True(broker.sub.has("chat:c1"))
	req.True(broker.sub.has("chat:c2"))
	req.True(broker.sub.has("user:alice"))
}

func TestBridge_ForwardsVerbatim(t *testing.T) {
	req := require.New(t)
	broker := &fakeBroker{}
	sink := &fakeSink{}

	b, err := Open(context.Background(), broker, &fakeMembers{chats: []string{"c1"}}, "alice", sink, discardLogger())
	req.NoError(err)
	defer b.Close()

	payload := []byte(`{"type":"message","chat_id":"c1","content":"hi"}`)
	broker.sub.publish("chat:c1", payload)

	req.Eventually(func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	req.Equal(payload, sink.last())
}

func TestBridge_ChatCreatedAddsSubscriptionWithoutReconnect(t *testing.T) {
	req := require.New(t)
	broker := &fakeBroker{}
	sink := &fakeSink{}

	b, err := Open(context.Background(), broker, &fakeMembers{chats: []string{"c1"}}, "alice", sink, discardLogger())
	req.NoError(err)
	defer b.Close()

	req.False(broker.sub.has("chat:c9"))

	created := []byte(`{"type":"chat_created","chat_id":"c9","is_group":true}`)
	broker.sub.publish("user:alice", created)

	// The notification itself is forwarded and the new channel joins the set.
	req.Eventually(func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	req.True(broker.sub.has("chat:c9"))

	payload := []byte(`{"type":"message","chat_id":"c9","content":"first"}`)
	broker.sub.publish("chat:c9", payload)
	req.Eventually(func() bool { return sink.count() == 2 }, time.Second, 5*time.Millisecond)
	req.Equal(payload, sink.last())
}

func TestBridge_ChatCreatedOnChatChannelDoesNotSubscribe(t *testing.T) {
	req := require.New(t)
	broker := &fakeBroker{}
	sink := &fakeSink{}

	b, err := Open(context.Background(), broker, &fakeMembers{chats: []string{"c1"}}, "alice", sink, discardLogger())
	req.NoError(err)
	defer b.Close()

	// Only the personal channel carries subscription-changing notifications.
	broker.sub.publish("chat:c1", []byte(`{"type":"chat_created","chat_id":"c9"}`))
	req.Eventually(func() bool { return sink.count() == 1 }, time.Second, 5*time.Millisecond)
	req.False(broker.sub.has("chat:c9"))
}

func TestBridge_CloseTearsDownSubscription(t *testing.T) {
	req := require.New(t)
	broker := &fakeBroker{}

	b, err := Open(context.Background(), broker, &fakeMembers{chats: []string{"c1"}}, "alice", &fakeSink{}, discardLogger())
	req.NoError(err)

	b.Close()
	req.True(broker.sub.closed)
}

func TestOpen_Errors(t *testing.T) {
	req := require.New(t)

	_, err := Open(context.Background(), &fakeBroker{}, &fakeMembers{err: errors.New("db down")}, "alice", &fakeSink{}, discardLogger())
	req.Error(err)

	_, err = Open(context.Background(), &fakeBroker{err: errors.New("broker down")}, &fakeMembers{}, "alice", &fakeSink{}, discardLogger())
	req.Error(err)
}
