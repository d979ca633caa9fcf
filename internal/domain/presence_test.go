package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSnapshot_SortsByNameCaseInsensitive(t *testing.T) {
	members := []Member{
		{Identity: "3", Name: "charlie"},
		{Identity: "1", Name: "Alice"},
		{Identity: "2", Name: "bob"},
	}

	snap := NewSnapshot("lobby", members)

	require.Len(t, snap.Members, 3)
	assert.Equal(t, "Alice", snap.Members[0].Name)
	assert.Equal(t, "bob", snap.Members[1].Name)
	assert.Equal(t, "charlie", snap.Members[2].Name)
	assert.Equal(t, 3, snap.Count)
	assert.Equal(t, "lobby", snap.RoomID)
}

func TestNewSnapshot_TiesBrokenByIdentity(t *testing.T) {
	members := []Member{
		{Identity: "b", Name: "same"},
		{Identity: "a", Name: "SAME"},
	}

	snap := NewSnapshot("lobby", members)

	require.Len(t, snap.Members, 2)
	assert.Equal(t, "a", snap.Members[0].Identity)
	assert.Equal(t, "b", snap.Members[1].Identity)
}

func TestNewSnapshot_DeterministicAcrossInputOrder(t *testing.T) {
	a := []Member{
		{Identity: "1", Name: "zoe"},
		{Identity: "2", Name: "Amy"},
		{Identity: "3", Name: "max"},
	}
	b := []Member{a[2], a[0], a[1]}

	snapA := NewSnapshot("r", a)
	snapB := NewSnapshot("r", b)

	assert.Equal(t, snapA, snapB)
}

func TestNewSnapshot_DoesNotMutateInput(t *testing.T) {
	members := []Member{
		{Identity: "2", Name: "b"},
		{Identity: "1", Name: "a"},
	}

	NewSnapshot("r", members)

	assert.Equal(t, "2", members[0].Identity)
	assert.Equal(t, "1", members[1].Identity)
}

func TestNewSnapshot_Empty(t *testing.T) {
	snap := NewSnapshot("r", nil)

	assert.Equal(t, 0, snap.Count)
	assert.Empty(t, snap.Members)
}

func TestGroupID(t *testing.T) {
	assert.Equal(t, "room:lobby", GroupID("lobby"))
}

func TestFallbackName(t *testing.T) {
	assert.Equal(t, "user-42", FallbackName("42"))
}
