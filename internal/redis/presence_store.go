package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Network1945/backend/internal/domain"
)

// Key schema (carried over from the original deployment, so mixed fleets can
// share one Redis):
//   room:{roomID}:members           — SET of identity
//   room:{roomID}:conns:{identity}  — INT connection count (multi-tab)
//   presence:names                  — HASH identity → display name

const namesKey = "presence:names"

func membersKey(roomID string) string {
	return "room:" + roomID + ":members"
}

func connsKey(roomID, identity string) string {
	return "room:" + roomID + ":conns:" + identity
}

// PresenceStore is the shared source of truth for room membership and
// per-identity connection counts. All mutations serialize through Redis-side
// atomic scripts; no client-side locking is involved.
type PresenceStore struct {
	rdb *goredis.Client
}

// NewPresenceStore creates a PresenceStore on the shared client.
func NewPresenceStore(client *Client) *PresenceStore {
	return &PresenceStore{rdb: client.rdb}
}

// IncrConnection atomically increments the connection count for an identity in
// a room. The 0→1 transition inserts the identity into the member set as part
// of the same script. Returns the new count.
func (s *PresenceStore) IncrConnection(ctx context.Context, roomID, identity string) (int64, error) {
	result, err := joinScript.Run(ctx, s.rdb,
		[]string{connsKey(roomID, identity), membersKey(roomID)},
		identity,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("join script failed: %w", err)
	}
	return result, nil
}

// DecrConnection atomically decrements the connection count. When the count
// drops to zero or below, the counter key is deleted and the identity removed
// from the member set in the same script. Returns the new count.
func (s *PresenceStore) DecrConnection(ctx context.Context, roomID, identity string) (int64, error) {
	result, err := leaveScript.Run(ctx, s.rdb,
		[]string{connsKey(roomID, identity), membersKey(roomID)},
		identity,
	).Int64()
	if err != nil {
		return 0, fmt.Errorf("leave script failed: %w", err)
	}
	return result, nil
}

// Members returns the current membership snapshot for a room.
func (s *PresenceStore) Members(ctx context.Context, roomID string) ([]string, error) {
	members, err := s.rdb.SMembers(ctx, membersKey(roomID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// ResolveNames maps identities to display names. Identities without a
// registered name get a deterministic synthetic fallback; a partial lookup
// never fails the whole call.
func (s *PresenceStore) ResolveNames(ctx context.Context, identities []string) (map[string]string, error) {
	names := make(map[string]string, len(identities))
	if len(identities) == 0 {
		return names, nil
	}

	values, err := s.rdb.HMGet(ctx, namesKey, identities...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve names: %w", err)
	}

	for i, identity := range identities {
		name, ok := values[i].(string)
		if !ok || name == "" {
			name = domain.FallbackName(identity)
		}
		names[identity] = name
	}
	return names, nil
}

// SetName registers the display name for an identity. Called at join time so
// sessions on other instances can resolve it.
func (s *PresenceStore) SetName(ctx context.Context, identity, name string) error {
	if err := s.rdb.HSet(ctx, namesKey, identity, name).Err(); err != nil {
		return fmt.Errorf("failed to set display name: %w", err)
	}
	return nil
}
