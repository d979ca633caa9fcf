package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Network1945/backend/internal/domain"
	"github.com/Network1945/backend/internal/metrics"
)

// groupPattern covers every room group channel. Each instance subscribes to
// the whole pattern once instead of churning per-room subscriptions; messages
// for rooms with no local subscribers are dropped by the broadcaster.
const groupPattern = "room:*"

const relayBufferSize = 256

// PubSubRelay is the cross-instance broadcast fabric, backed by Redis Pub/Sub.
// Publish sends to a group channel; every instance (the publisher included)
// receives the message on Messages and fans it out to local subscribers.
type PubSubRelay struct {
	rdb    *goredis.Client
	sub    *goredis.PubSub
	ch     chan domain.GroupMessage
	cancel context.CancelFunc
}

// NewPubSubRelay subscribes to the room group pattern and starts pumping
// messages. Call Close when done.
func NewPubSubRelay(client *Client) *PubSubRelay {
	ctx, cancel := context.WithCancel(context.Background())
	sub := client.rdb.PSubscribe(ctx, groupPattern)

	r := &PubSubRelay{
		rdb:    client.rdb,
		sub:    sub,
		ch:     make(chan domain.GroupMessage, relayBufferSize),
		cancel: cancel,
	}

	go func() {
		defer close(r.ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				metrics.PubSubMessagesReceived.Inc()
				select {
				case r.ch <- domain.GroupMessage{Group: msg.Channel, Payload: []byte(msg.Payload)}:
				default:
					// Drop if the broadcaster is behind; the per-session
					// ticker re-pushes the snapshot shortly anyway.
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return r
}

// Publish sends a payload to a group channel across all instances.
func (r *PubSubRelay) Publish(ctx context.Context, group string, payload []byte) error {
	if err := r.rdb.Publish(ctx, group, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish to group %s: %w", group, err)
	}
	metrics.PubSubMessagesPublished.Inc()
	return nil
}

// Messages returns the stream of relayed group messages. The channel closes
// when the relay is closed.
func (r *PubSubRelay) Messages() <-chan domain.GroupMessage {
	return r.ch
}

// Close unsubscribes and stops the pump.
func (r *PubSubRelay) Close() error {
	r.cancel()
	return r.sub.Close()
}
