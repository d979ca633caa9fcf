package domain

import (
	"sort"
	"strings"
)

// MaxNameLength bounds ephemeral display names supplied at connect time.
const MaxNameLength = 32

// Member is one identity present in a room, enriched with a display name.
type Member struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// Snapshot is a computed view of current room membership.
// Members are sorted case-insensitively by display name so that two snapshots
// built from the same membership set serialize identically.
type Snapshot struct {
	RoomID  string   `json:"roomId"`
	Count   int      `json:"count"`
	Members []Member `json:"members"`
}

// NewSnapshot builds a Snapshot from an unordered member list.
func NewSnapshot(roomID string, members []Member) Snapshot {
	sorted := make([]Member, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := strings.ToLower(sorted[i].Name), strings.ToLower(sorted[j].Name)
		if a != b {
			return a < b
		}
		return sorted[i].Identity < sorted[j].Identity
	})
	return Snapshot{RoomID: roomID, Count: len(sorted), Members: sorted}
}

// GroupID maps a room to its broadcast group. One logical group per room.
func GroupID(roomID string) string {
	return "room:" + roomID
}

// FallbackName derives a deterministic synthetic display name for an identity
// whose real name could not be resolved.
func FallbackName(identity string) string {
	return "user-" + identity
}
