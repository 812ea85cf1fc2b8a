// Package bridge binds a live session to the broker channels relevant to its
// user and relays inbound broker events to the session for the connection's
// lifetime.
package bridge

import (
	"context"
	"log/slog"

	"github.com/samber/lo"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/event"
)

// Sink receives forwarded broker payloads; satisfied by realtime.Connection.
type Sink interface {
	Send(payload []byte) error
}

// MembershipSource yields the chats a user belongs to at connect time.
type MembershipSource interface {
	QueryMembershipsByUser(ctx context.Context, userID string) ([]chat.ChatMembership, error)
}

// Bridge owns one broker subscription per connection. The channel set is
// {chat:<id> for each membership} ∪ {user:<id>}; chat_created events arriving
// on the user channel grow the set in place, so an open session starts
// receiving a new chat's traffic without reconnecting.
type Bridge struct {
	sub    bport.Subscription
	sink   Sink
	userID string
	log    *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// Open subscribes the user's channel set and starts the listener goroutine.
func Open(ctx context.Context, broker bport.Broker, members MembershipSource, userID string, sink Sink, log *slog.Logger) (*Bridge, error) {
	memberships, err := members.QueryMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	channels := lo.Map(memberships, func(m chat.ChatMembership, _ int) string {
		return event.ChatChannel(m.ChatID)
	})
	channels = append(channels, event.UserChannel(userID))

	sub, err := broker.Subscribe(ctx, channels...)
	if err != nil {
		return nil, err
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		sub:    sub,
		sink:   sink,
		userID: userID,
		log:    log,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go b.listen(listenCtx)
	return b, nil
}

// Close cancels the listener and unsubscribes every channel as one scoped
// operation. Safe to call from any goroutine and on every exit path.
func (b *Bridge) Close() {
	b.cancel()
	_ = b.sub.Close()
	<-b.done
}

func (b *Bridge) listen(ctx context.Context) {
	defer close(b.done)
	userChannel := event.UserChannel(b.userID)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-b.sub.Events():
			if !ok {
				return
			}

			// A chat_created notification on the personal channel means the
			// registry's connect-time channel set is stale: grow it now.
			if msg.Channel == userChannel {
				if chatID, ok := event.PeekChatCreated(msg.Payload); ok {
					if err := b.sub.Subscribe(ctx, event.ChatChannel(chatID)); err != nil {
						b.log.Error("dynamic subscribe failed", "user_id", b.userID, "chat_id", chatID, "error", err)
					}
				}
			}

			// Forward verbatim; the event is already serialized canonically.
			if err := b.sink.Send(msg.Payload); err != nil {
				b.log.Warn("forward to session failed", "user_id", b.userID, "error", err)
				return
			}
		}
	}
}
