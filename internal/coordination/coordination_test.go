package coordination

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	rediscontainer "github.com/testcontainers/testcontainers-go/modules/redis"
)

var (
	testRedisURL string
	redContainer testcontainers.Container
)

func TestMain(m *testing.M) {
	// Parse flags to check for -short
	flag.Parse()

	// Skip container setup if running in short mode
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	var err error
	redContainer, err = rediscontainer.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	endpoint, err := redContainer.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testRedisURL = "redis://" + endpoint

	defer func() {
		if err := redContainer.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()
	os.Exit(m.Run())
}

// setupTestRedis creates a Redis client for testing.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	opts, err := redis.ParseURL(testRedisURL)
	require.NoError(t, err)

	client := redis.NewClient(opts)

	// Flush all keys before each test
	ctx := context.Background()
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func TestInstanceRegistry_RegisterAndActive(t *testing.T) {
	ctx := context.Background()
	redisClient := setupTestRedis(t)

	registry := NewInstanceRegistry(redisClient, "test-instance-1", time.Second, clockwork.NewRealClock())
	registry.register(ctx)

	active, err := registry.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.Contains(t, active, "test-instance-1")
}

func TestInstanceRegistry_StaleHeartbeatExcluded(t *testing.T) {
	ctx := context.Background()
	redisClient := setupTestRedis(t)

	clock := clockwork.NewFakeClock()
	registry := NewInstanceRegistry(redisClient, "test-instance-2", time.Second, clock)
	registry.register(ctx)

	// From this registry's view time has moved past the staleness window.
	clock.Advance(staleAfter + time.Second)

	active, err := registry.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.NotContains(t, active, "test-instance-2")
}

func TestInstanceRegistry_MultipleInstances(t *testing.T) {
	ctx := context.Background()
	redisClient := setupTestRedis(t)
	clock := clockwork.NewRealClock()

	registry1 := NewInstanceRegistry(redisClient, "instance-1", time.Second, clock)
	registry2 := NewInstanceRegistry(redisClient, "instance-2", time.Second, clock)

	registry1.register(ctx)
	registry2.register(ctx)

	active, err := registry1.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 2)
	assert.Contains(t, active, "instance-1")
	assert.Contains(t, active, "instance-2")
}

func TestInstanceRegistry_Unregister(t *testing.T) {
	ctx := context.Background()
	redisClient := setupTestRedis(t)

	registry := NewInstanceRegistry(redisClient, "test-instance-3", time.Second, clockwork.NewRealClock())
	registry.register(ctx)
	registry.unregister()

	active, err := registry.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.NotContains(t, active, "test-instance-3")
}

func TestInstanceRegistry_MalformedEntryIgnored(t *testing.T) {
	ctx := context.Background()
	redisClient := setupTestRedis(t)

	require.NoError(t, redisClient.HSet(ctx, instancesKey, "broken", "not-json").Err())

	registry := NewInstanceRegistry(redisClient, "test-instance-4", time.Second, clockwork.NewRealClock())
	registry.register(ctx)

	active, err := registry.ActiveInstances(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"test-instance-4"}, active)
}

func TestInstanceRegistry_StartHeartbeatsAndUnregisters(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	redisClient := setupTestRedis(t)

	registry := NewInstanceRegistry(redisClient, "test-instance-5", 50*time.Millisecond, clockwork.NewRealClock())

	done := make(chan struct{})
	go func() {
		registry.Start(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		active, err := registry.ActiveInstances(context.Background())
		return err == nil && len(active) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("registry did not stop after cancel")
	}

	data, err := redisClient.HGetAll(context.Background(), instancesKey).Result()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestInstanceInfo_RoundTrip(t *testing.T) {
	info := InstanceInfo{InstanceID: "a", Timestamp: 123}
	data, err := json.Marshal(info)
	require.NoError(t, err)

	var decoded InstanceInfo
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, info, decoded)
}
