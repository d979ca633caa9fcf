// Package coordination tracks the fleet of gateway instances in Redis.
package coordination

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
)

const (
	instancesKey = "instances"

	// staleAfter marks instances without a heartbeat as inactive.
	staleAfter = 60 * time.Second
)

// InstanceRegistry announces this instance to the shared Redis hash so
// operators can see how many gateways currently serve the room fleet.
type InstanceRegistry struct {
	redis      *redis.Client
	instanceID string
	heartbeat  time.Duration
	clock      clockwork.Clock
}

// InstanceInfo holds metadata about an instance.
type InstanceInfo struct {
	InstanceID string `json:"instance_id"`
	Timestamp  int64  `json:"timestamp"`
}

// NewInstanceRegistry creates a registry entry for this instance.
// instanceID should be unique per instance (e.g., hostname or UUID).
func NewInstanceRegistry(redis *redis.Client, instanceID string, heartbeat time.Duration, clock clockwork.Clock) *InstanceRegistry {
	return &InstanceRegistry{
		redis:      redis,
		instanceID: instanceID,
		heartbeat:  heartbeat,
		clock:      clock,
	}
}

// Start begins the heartbeat loop. Registers immediately, then re-registers on
// the ticker interval. Blocks until ctx is cancelled, then unregisters.
func (r *InstanceRegistry) Start(ctx context.Context) {
	r.register(ctx)

	ticker := r.clock.NewTicker(r.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			r.register(ctx)
		case <-ctx.Done():
			r.unregister()
			return
		}
	}
}

func (r *InstanceRegistry) register(ctx context.Context) {
	value := InstanceInfo{
		InstanceID: r.instanceID,
		Timestamp:  r.clock.Now().Unix(),
	}

	data, err := json.Marshal(value)
	if err != nil {
		return
	}

	r.redis.HSet(ctx, instancesKey, r.instanceID, data)
}

func (r *InstanceRegistry) unregister() {
	ctx := context.Background()
	r.redis.HDel(ctx, instancesKey, r.instanceID)
}

// ActiveInstances returns instance ids with a heartbeat within the staleness
// window.
func (r *InstanceRegistry) ActiveInstances(ctx context.Context) ([]string, error) {
	instances, err := r.redis.HGetAll(ctx, instancesKey).Result()
	if err != nil {
		return nil, err
	}

	active := []string{}
	now := r.clock.Now().Unix()

	for instanceID, data := range instances {
		var info InstanceInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			continue
		}
		if now-info.Timestamp < int64(staleAfter.Seconds()) {
			active = append(active, instanceID)
		}
	}

	return active, nil
}
