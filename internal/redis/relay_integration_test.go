package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSubRelay_PublishLoopsBack(t *testing.T) {
	client := setupTestClient(t)
	relay := NewPubSubRelay(client)
	defer func() { _ = relay.Close() }()

	// PSubscribe needs a moment to become active server-side.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, relay.Publish(context.Background(), "room:lobby", []byte("hello")))

	select {
	case msg := <-relay.Messages():
		assert.Equal(t, "room:lobby", msg.Group)
		assert.Equal(t, []byte("hello"), msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for relayed message")
	}
}

func TestPubSubRelay_CoversAllRooms(t *testing.T) {
	client := setupTestClient(t)
	relay := NewPubSubRelay(client)
	defer func() { _ = relay.Close() }()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, relay.Publish(context.Background(), "room:a", []byte("1")))
	require.NoError(t, relay.Publish(context.Background(), "room:b", []byte("2")))

	groups := map[string]bool{}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-relay.Messages():
			groups[msg.Group] = true
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for relayed messages")
		}
	}
	assert.True(t, groups["room:a"])
	assert.True(t, groups["room:b"])
}

func TestPubSubRelay_CrossClientDelivery(t *testing.T) {
	client := setupTestClient(t)
	other, err := NewClient(testRedisURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	relay := NewPubSubRelay(client)
	defer func() { _ = relay.Close() }()

	time.Sleep(100 * time.Millisecond)

	// Publish from a different client, as another instance would.
	otherRelay := NewPubSubRelay(other)
	defer func() { _ = otherRelay.Close() }()
	require.NoError(t, otherRelay.Publish(context.Background(), "room:lobby", []byte("remote")))

	select {
	case msg := <-relay.Messages():
		assert.Equal(t, []byte("remote"), msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cross-client message")
	}
}

func TestPubSubRelay_CloseShutsDownStream(t *testing.T) {
	client := setupTestClient(t)
	relay := NewPubSubRelay(client)

	require.NoError(t, relay.Close())

	select {
	case _, ok := <-relay.Messages():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
