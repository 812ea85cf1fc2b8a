// Package processor implements the message event processor: it validates
// inbound client events, mutates persisted state, and republishes canonical
// events to the broker. Callers must invoke Handle sequentially per
// connection; send-order per sender is preserved by the single reader loop,
// not by this type.
package processor

import (
	"context"
	"errors"
	"log/slog"

	bport "github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
	"github.com/jayant810/chatSphere/internal/infrastructure/metrics"
	qport "github.com/jayant810/chatSphere/internal/infrastructure/queue/port"
	"github.com/jayant810/chatSphere/internal/infrastructure/realtime"
	chat "github.com/jayant810/chatSphere/internal/pkg/chat/application/domain"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/event"
	"github.com/jayant810/chatSphere/internal/pkg/chat/application/task"
	repository "github.com/jayant810/chatSphere/internal/pkg/chat/persistence/repository/port"
)

// Reply delivers a frame to the requesting session only.
type Reply func(payload []byte)

// Processor dispatches one inbound event at a time. Writes commit before the
// canonical event is published, so the sender reads their own writes;
// delivery to other subscribers is eventually consistent.
type Processor struct {
	repo     repository.ChatRepository
	broker   bport.Broker
	queue    qport.Client
	registry *realtime.Registry
	log      *slog.Logger
}

func New(repo repository.ChatRepository, broker bport.Broker, queue qport.Client, registry *realtime.Registry, log *slog.Logger) *Processor {
	return &Processor{repo: repo, broker: broker, queue: queue, registry: registry, log: log}
}

// Handle processes one raw inbound frame from senderID. Protocol failures
// never terminate the connection: malformed frames are dropped with a logged
// diagnostic, unrecognized types are rejected with an error event, and
// persistence failures produce an explicit failure ack so the client can
// retry.
func (p *Processor) Handle(ctx context.Context, senderID string, raw []byte, reply Reply) {
	in, err := event.Decode(raw)
	if err != nil {
		var unknown event.UnknownTypeError
		if errors.As(err, &unknown) {
			metrics.EventsRejected.WithLabelValues("unknown_type").Inc()
			p.log.Warn("rejected unknown event type", "user_id", senderID, "event_type", unknown.Type)
			p.reply(reply, event.NewErrorEvent(event.CodeUnsupportedType, unknown.Error()))
			return
		}
		metrics.EventsRejected.WithLabelValues("malformed").Inc()
		p.log.Warn("dropped malformed frame", "user_id", senderID, "error", err)
		return
	}

	switch e := in.(type) {
	case event.SendMessage:
		p.handleSend(ctx, senderID, e, reply)
	case event.Typing:
		p.handleTyping(ctx, senderID, e, reply)
	case event.ReadReceipt:
		p.handleReadReceipt(ctx, senderID, e, reply)
	case event.Reaction:
		p.handleReaction(ctx, senderID, e, reply)
	case event.Delete:
		p.handleDelete(ctx, senderID, e, reply)
	}
}

func (p *Processor) handleSend(ctx context.Context, senderID string, e event.SendMessage, reply Reply) {
	msg, err := chat.NewMessage(chat.Message{
		ChatID:    e.ChatID,
		SenderID:  senderID,
		Content:   e.Content,
		FileURL:   e.FileURL,
		Type:      e.MessageType,
		ReplyToID: e.ReplyToID,
	})
	if err != nil {
		p.reply(reply, event.NewErrorEvent(event.CodeBadRequest, err.Error()))
		return
	}

	// Denormalize the replied-to content so clients render the quote without
	// a second lookup. A missing original downgrades to a plain message.
	if msg.ReplyToID != nil {
		if original, err := p.repo.GetMessage(ctx, *msg.ReplyToID); err == nil {
			msg.ReplyToContent = original.Content
		} else if !errors.Is(err, repository.ErrNotFound) {
			p.persistFail(senderID, reply, err)
			return
		}
	}

	id, err := p.repo.InsertMessage(ctx, *msg)
	if err != nil {
		p.persistFail(senderID, reply, err)
		return
	}
	msg.ID = id

	metrics.EventsProcessed.WithLabelValues(string(event.TypeMessage)).Inc()
	p.publish(ctx, event.ChatChannel(msg.ChatID), msg.ChatID, event.NewMessageEvent(*msg), reply)
}

func (p *Processor) handleTyping(ctx context.Context, senderID string, e event.Typing, reply Reply) {
	if e.ChatID == "" {
		p.reply(reply, event.NewErrorEvent(event.CodeBadRequest, chat.ErrNoChat.Error()))
		return
	}
	metrics.EventsProcessed.WithLabelValues(string(event.TypeTyping)).Inc()
	p.publish(ctx, event.ChatChannel(e.ChatID), e.ChatID, event.TypingEvent{
		Type:     event.TypeTyping,
		ChatID:   e.ChatID,
		UserID:   senderID,
		IsTyping: e.IsTyping,
	}, reply)
}

func (p *Processor) handleReadReceipt(ctx context.Context, senderID string, e event.ReadReceipt, reply Reply) {
	msg, ok := p.loadMessage(ctx, e.MessageID, senderID, reply)
	if !ok {
		return
	}

	if msg.MarkRead() {
		if err := p.repo.UpdateMessage(ctx, *msg); err != nil {
			p.persistFail(senderID, reply, err)
			return
		}
	}

	metrics.EventsProcessed.WithLabelValues(string(event.TypeReadReceipt)).Inc()
	p.publish(ctx, event.ChatChannel(msg.ChatID), msg.ChatID, event.ReadReceiptEvent{
		Type:      event.TypeReadReceipt,
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		UserID:    senderID,
	}, reply)
}

func (p *Processor) handleReaction(ctx context.Context, senderID string, e event.Reaction, reply Reply) {
	if e.Emoji == "" {
		p.reply(reply, event.NewErrorEvent(event.CodeBadRequest, "emoji is required"))
		return
	}
	msg, ok := p.loadMessage(ctx, e.MessageID, senderID, reply)
	if !ok {
		return
	}

	msg.ToggleReaction(e.Emoji, senderID)
	if err := p.repo.UpdateMessage(ctx, *msg); err != nil {
		p.persistFail(senderID, reply, err)
		return
	}

	metrics.EventsProcessed.WithLabelValues(string(event.TypeReaction)).Inc()
	p.publish(ctx, event.ChatChannel(msg.ChatID), msg.ChatID, event.ReactionEvent{
		Type:      event.TypeReaction,
		ChatID:    msg.ChatID,
		MessageID: msg.ID,
		UserID:    senderID,
		Emoji:     e.Emoji,
		Reactions: msg.Reactions,
	}, reply)
}

func (p *Processor) handleDelete(ctx context.Context, senderID string, e event.Delete, reply Reply) {
	msg, ok := p.loadMessage(ctx, e.MessageID, senderID, reply)
	if !ok {
		return
	}

	if e.ForEveryone {
		if err := msg.DeleteForEveryone(senderID); err != nil {
			// Never silently reinterpreted as a delete-for-me.
			p.reply(reply, event.NewErrorEvent(event.CodeForbidden, err.Error()))
			return
		}
		if err := p.repo.UpdateMessage(ctx, *msg); err != nil {
			p.persistFail(senderID, reply, err)
			return
		}
		metrics.EventsProcessed.WithLabelValues(string(event.TypeDelete)).Inc()
		p.publish(ctx, event.ChatChannel(msg.ChatID), msg.ChatID, event.DeleteEvent{
			Type:        event.TypeDelete,
			ChatID:      msg.ChatID,
			MessageID:   msg.ID,
			UserID:      senderID,
			ForEveryone: true,
		}, reply)
		return
	}

	if msg.DeleteFor(senderID) {
		if err := p.repo.UpdateMessage(ctx, *msg); err != nil {
			p.persistFail(senderID, reply, err)
			return
		}
	}

	// Per-user visibility is the requester's concern only: ack directly, no
	// broker publish.
	metrics.EventsProcessed.WithLabelValues(string(event.TypeDelete)).Inc()
	p.reply(reply, event.DeleteEvent{
		Type:        event.TypeDelete,
		ChatID:      msg.ChatID,
		MessageID:   msg.ID,
		UserID:      senderID,
		ForEveryone: false,
	})
}

func (p *Processor) loadMessage(ctx context.Context, messageID, senderID string, reply Reply) (*chat.Message, bool) {
	if messageID == "" {
		p.reply(reply, event.NewErrorEvent(event.CodeBadRequest, "message_id is required"))
		return nil, false
	}
	msg, err := p.repo.GetMessage(ctx, messageID)
	if errors.Is(err, repository.ErrNotFound) {
		p.reply(reply, event.NewErrorEvent(event.CodeNotFound, "message not found"))
		return nil, false
	}
	if err != nil {
		p.persistFail(senderID, reply, err)
		return nil, false
	}
	return msg, true
}

// publish serializes and publishes the canonical event. On broker failure the
// payload is queued for retried republish, delivered to local sessions of the
// chat's members, and the sender is told delivery is degraded.
func (p *Processor) publish(ctx context.Context, channel, chatID string, evt any, reply Reply) {
	payload, err := event.Marshal(evt)
	if err != nil {
		p.log.Error("marshal outbound event", "channel", channel, "error", err)
		return
	}

	if err := p.broker.Publish(ctx, channel, payload); err != nil {
		metrics.PublishFailures.Inc()
		p.log.Error("broker publish failed", "channel", channel, "error", err)
		p.degrade(ctx, channel, chatID, payload, reply)
		return
	}
	metrics.EventsPublished.Inc()
}

func (p *Processor) degrade(ctx context.Context, channel, chatID string, payload []byte, reply Reply) {
	if p.queue != nil {
		if err := task.EnqueueRepublish(ctx, p.queue, channel, payload); err != nil {
			p.log.Error("enqueue republish failed", "channel", channel, "error", err)
		}
	}

	members, err := p.repo.ListChatMembers(ctx, chatID)
	if err != nil {
		p.log.Error("list members for local fallback failed", "chat_id", chatID, "error", err)
	}
	for _, uid := range members {
		if p.registry.DeliverLocal(uid, payload) {
			metrics.LocalDeliveries.Inc()
		}
	}

	p.reply(reply, event.NewErrorEvent(event.CodeDegradedDelivery,
		"cross-instance delivery degraded; event delivered locally and queued for retry"))
}

func (p *Processor) persistFail(senderID string, reply Reply, err error) {
	metrics.EventsRejected.WithLabelValues("persistence").Inc()
	p.log.Error("persistence failure", "user_id", senderID, "error", err)
	p.reply(reply, event.NewErrorEvent(event.CodePersistenceError, "could not persist event, please retry"))
}

func (p *Processor) reply(reply Reply, evt any) {
	if reply == nil {
		return
	}
	payload, err := event.Marshal(evt)
	if err != nil {
		p.log.Error("marshal reply event", "error", err)
		return
	}
	reply(payload)
}
