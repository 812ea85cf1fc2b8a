package adapter

import (
	"context"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/jayant810/chatSphere/internal/infrastructure/broker/port"
)

// RedisBroker satisfies port.Broker using Redis PubSub. It wraps a go-redis
// v9 Client shared by all publishers and subscriptions in the process.
type RedisBroker struct {
	client *redis.Client
}

// NewRedisBroker connects to the given Redis URL and verifies it with a ping.
func NewRedisBroker(url string) (*RedisBroker, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	c := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return &RedisBroker{client: c}, nil
}

// Ensure interface compliance at compile time
var _ port.Broker = (*RedisBroker)(nil)

func (b *RedisBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	return b.client.Publish(ctx, channel, payload).Err()
}

func (b *RedisBroker) Subscribe(ctx context.Context, channels ...string) (port.Subscription, error) {
	ps := b.client.Subscribe(ctx, channels...)
	// Force the SUBSCRIBE round-trip so connect-time broker failures surface
	// here instead of as an empty stream.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe: %w", err)
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan port.Message, 64),
		quit:   make(chan struct{}),
	}
	go sub.pump(ps.Channel())
	return sub, nil
}

func (b *RedisBroker) Ping(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}

func (b *RedisBroker) Close() error {
	return b.client.Close()
}

// redisSubscription adapts *redis.PubSub to port.Subscription. go-redis
// transparently resubscribes the whole channel set after a connection drop,
// which covers the bridge's retry obligation for the subscribe path.
type redisSubscription struct {
	ps     *redis.PubSub
	events chan port.Message
	quit   chan struct{}
	once   sync.Once
}

var _ port.Subscription = (*redisSubscription)(nil)

func (s *redisSubscription) Events() <-chan port.Message {
	return s.events
}

func (s *redisSubscription) Subscribe(ctx context.Context, channels ...string) error {
	return s.ps.Subscribe(ctx, channels...)
}

func (s *redisSubscription) Unsubscribe(ctx context.Context, channels ...string) error {
	return s.ps.Unsubscribe(ctx, channels...)
}

// Close unsubscribes all channels and releases the pump. quit unblocks a pump
// stalled on a full events buffer after the consumer stopped draining.
func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.quit)
		if s.ps != nil {
			err = s.ps.Close()
		}
	})
	return err
}

func (s *redisSubscription) pump(src <-chan *redis.Message) {
	defer close(s.events)
	for {
		select {
		case <-s.quit:
			return
		case msg, ok := <-src:
			if !ok {
				return
			}
			select {
			case s.events <- port.Message{Channel: msg.Channel, Payload: []byte(msg.Payload)}:
			case <-s.quit:
				return
			}
		}
	}
}
