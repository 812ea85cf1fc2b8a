package port

import "context"

// Message is one event received from a broker channel.
type Message struct {
	Channel string
	Payload []byte
}

// Subscription is a live multi-channel stream. It is owned by a single
// consumer goroutine; only Close is safe to call from another goroutine.
type Subscription interface {
	// Events yields messages for the subscribed channel set in per-channel
	// publish order. The channel is closed when the subscription ends.
	Events() <-chan Message

	// Subscribe adds channels to the live subscription set without
	// interrupting delivery on the existing ones.
	Subscribe(ctx context.Context, channels ...string) error

	// Unsubscribe removes channels from the set.
	Unsubscribe(ctx context.Context, channels ...string) error

	// Close unsubscribes every channel and releases the stream. Idempotent.
	Close() error
}

// Broker is the cross-instance publish/subscribe fanout transport.
// Implementations must be concurrency-safe for Publish.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	Ping(ctx context.Context) error
	Close() error
}
