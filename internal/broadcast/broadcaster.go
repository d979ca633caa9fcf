package broadcast

import (
	"context"
	"log/slog"

	"github.com/Network1945/backend/internal/domain"
	"github.com/Network1945/backend/internal/metrics"
)

// Subscriber receives payloads published to groups it is subscribed to.
// Deliver must not block; implementations enqueue into a buffered writer and
// drop on overflow.
type Subscriber interface {
	Deliver(payload []byte)
}

// Relay is the cross-instance transport. Publish sends to all instances;
// Messages yields everything published to any group, the publisher's own
// messages included.
type Relay interface {
	Publish(ctx context.Context, group string, payload []byte) error
	Messages() <-chan domain.GroupMessage
}

// --- Command types ---

type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type subscribeCmd struct {
	baseBroadcasterCmd
	group string
	sub   Subscriber
	done  chan struct{}
}

type unsubscribeCmd struct {
	baseBroadcasterCmd
	group string
	sub   Subscriber
	done  chan struct{}
}

type deliverCmd struct {
	baseBroadcasterCmd
	group   string
	payload []byte
}

type subscriberCountCmd struct {
	baseBroadcasterCmd
	group   string
	replyCh chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// --- Broadcaster ---

// Broadcaster fans group messages out to locally subscribed sessions.
type Broadcaster struct {
	cmdCh  chan broadcasterCmd
	groups map[string]map[Subscriber]struct{}
	relay  Relay
}

// NewBroadcaster creates a broadcaster and starts its actor loop.
// relay may be nil, in which case publishes fan out in-process only.
func NewBroadcaster(relay Relay) *Broadcaster {
	b := &Broadcaster{
		cmdCh:  make(chan broadcasterCmd, 256),
		groups: make(map[string]map[Subscriber]struct{}),
		relay:  relay,
	}
	go b.run()
	return b
}

// Subscribe registers a subscriber for a group. Idempotent per (group, sub).
func (b *Broadcaster) Subscribe(group string, sub Subscriber) {
	done := make(chan struct{})
	b.cmdCh <- subscribeCmd{group: group, sub: sub, done: done}
	<-done
}

// Unsubscribe removes a registration. Safe to call for a subscriber that was
// never subscribed.
func (b *Broadcaster) Unsubscribe(group string, sub Subscriber) {
	done := make(chan struct{})
	b.cmdCh <- unsubscribeCmd{group: group, sub: sub, done: done}
	<-done
}

// Publish delivers a payload to every subscriber of the group, on this
// instance and every other one sharing the relay.
func (b *Broadcaster) Publish(ctx context.Context, group string, payload []byte) error {
	if b.relay != nil {
		// The relay loops the message back to this instance; local fan-out
		// happens when it arrives, same as on every other instance.
		return b.relay.Publish(ctx, group, payload)
	}
	b.cmdCh <- deliverCmd{group: group, payload: payload}
	return nil
}

// SubscriberCount returns the number of local subscribers for a group.
func (b *Broadcaster) SubscriberCount(group string) int {
	replyCh := make(chan int, 1)
	b.cmdCh <- subscriberCountCmd{group: group, replyCh: replyCh}
	return <-replyCh
}

// Stop shuts down the actor loop. Subscribers are not closed; their sessions
// own them.
func (b *Broadcaster) Stop() {
	b.cmdCh <- stopCmd{}
}

func (b *Broadcaster) run() {
	var relayCh <-chan domain.GroupMessage
	if b.relay != nil {
		relayCh = b.relay.Messages()
	}

	for {
		select {
		case cmd := <-b.cmdCh:
			switch c := cmd.(type) {
			case subscribeCmd:
				b.handleSubscribe(c)
			case unsubscribeCmd:
				b.handleUnsubscribe(c)
			case deliverCmd:
				b.fanOut(c.group, c.payload)
			case subscriberCountCmd:
				c.replyCh <- len(b.groups[c.group])
			case stopCmd:
				return
			default:
				slog.Error("Broadcaster: unknown command type", "cmd", cmd)
			}
		case msg, ok := <-relayCh:
			if !ok {
				relayCh = nil
				continue
			}
			b.fanOut(msg.Group, msg.Payload)
		}
	}
}

func (b *Broadcaster) handleSubscribe(c subscribeCmd) {
	defer close(c.done)
	subs, exists := b.groups[c.group]
	if !exists {
		subs = make(map[Subscriber]struct{})
		b.groups[c.group] = subs
		metrics.BroadcastGroups.Set(float64(len(b.groups)))
	}
	subs[c.sub] = struct{}{}
}

func (b *Broadcaster) handleUnsubscribe(c unsubscribeCmd) {
	defer close(c.done)
	subs, exists := b.groups[c.group]
	if !exists {
		return
	}
	delete(subs, c.sub)
	if len(subs) == 0 {
		delete(b.groups, c.group)
		metrics.BroadcastGroups.Set(float64(len(b.groups)))
	}
}

func (b *Broadcaster) fanOut(group string, payload []byte) {
	for sub := range b.groups[group] {
		sub.Deliver(payload)
	}
}
