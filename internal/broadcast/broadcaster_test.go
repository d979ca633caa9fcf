package broadcast

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Network1945/backend/internal/domain"
)

type recordingSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (r *recordingSubscriber) Deliver(payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

func (r *recordingSubscriber) last() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.payloads) == 0 {
		return nil
	}
	return r.payloads[len(r.payloads)-1]
}

// loopbackRelay mimics the pub/sub fabric: every publish is fed back on
// Messages, the way Redis returns a published message to its own subscriber.
type loopbackRelay struct {
	ch chan domain.GroupMessage
}

func newLoopbackRelay() *loopbackRelay {
	return &loopbackRelay{ch: make(chan domain.GroupMessage, 16)}
}

func (r *loopbackRelay) Publish(_ context.Context, group string, payload []byte) error {
	r.ch <- domain.GroupMessage{Group: group, Payload: payload}
	return nil
}

func (r *loopbackRelay) Messages() <-chan domain.GroupMessage {
	return r.ch
}

func TestBroadcaster_LocalFanOut(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Stop()

	sub1 := &recordingSubscriber{}
	sub2 := &recordingSubscriber{}
	other := &recordingSubscriber{}
	b.Subscribe("room:a", sub1)
	b.Subscribe("room:a", sub2)
	b.Subscribe("room:b", other)

	require.NoError(t, b.Publish(context.Background(), "room:a", []byte("hello")))

	require.Eventually(t, func() bool {
		return sub1.count() == 1 && sub2.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte("hello"), sub1.last())
	assert.Equal(t, 0, other.count())
}

func TestBroadcaster_SubscribeIdempotent(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Stop()

	sub := &recordingSubscriber{}
	b.Subscribe("room:a", sub)
	b.Subscribe("room:a", sub)

	assert.Equal(t, 1, b.SubscriberCount("room:a"))

	require.NoError(t, b.Publish(context.Background(), "room:a", []byte("x")))
	require.Eventually(t, func() bool {
		return sub.count() == 1
	}, time.Second, 5*time.Millisecond)
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Stop()

	sub := &recordingSubscriber{}
	b.Subscribe("room:a", sub)
	b.Unsubscribe("room:a", sub)

	require.NoError(t, b.Publish(context.Background(), "room:a", []byte("x")))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, sub.count())
	assert.Equal(t, 0, b.SubscriberCount("room:a"))
}

func TestBroadcaster_UnsubscribeUnknownIsNoop(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Stop()

	b.Unsubscribe("room:never", &recordingSubscriber{})
	assert.Equal(t, 0, b.SubscriberCount("room:never"))
}

func TestBroadcaster_PublishToEmptyGroup(t *testing.T) {
	b := NewBroadcaster(nil)
	defer b.Stop()

	require.NoError(t, b.Publish(context.Background(), "room:empty", []byte("x")))
}

func TestBroadcaster_RelayLoopback(t *testing.T) {
	relay := newLoopbackRelay()
	b := NewBroadcaster(relay)
	defer b.Stop()

	sub := &recordingSubscriber{}
	b.Subscribe("room:a", sub)

	require.NoError(t, b.Publish(context.Background(), "room:a", []byte("via-relay")))

	require.Eventually(t, func() bool {
		return sub.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []byte("via-relay"), sub.last())
}

func TestBroadcaster_RelayMessageForUnknownGroupDropped(t *testing.T) {
	relay := newLoopbackRelay()
	b := NewBroadcaster(relay)
	defer b.Stop()

	sub := &recordingSubscriber{}
	b.Subscribe("room:a", sub)

	relay.ch <- domain.GroupMessage{Group: "room:ghost", Payload: []byte("x")}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, sub.count())
}

func TestBroadcaster_SurvivesRelayClose(t *testing.T) {
	relay := newLoopbackRelay()
	b := NewBroadcaster(relay)
	defer b.Stop()

	sub := &recordingSubscriber{}
	b.Subscribe("room:a", sub)

	close(relay.ch)

	// The actor keeps serving local commands after the relay channel closes.
	assert.Equal(t, 1, b.SubscriberCount("room:a"))
}
