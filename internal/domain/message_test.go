package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name string
		data string
		want ClientMessageKind
	}{
		{"who request", `{"type":"who"}`, ClientMessageWho},
		{"who with extra fields", `{"type":"who","x":1}`, ClientMessageWho},
		{"unknown type", `{"type":"chat"}`, ClientMessageUnknown},
		{"missing type", `{"payload":"hi"}`, ClientMessageUnknown},
		{"malformed json", `{"type":`, ClientMessageUnknown},
		{"empty", ``, ClientMessageUnknown},
		{"not an object", `"who"`, ClientMessageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseClientMessage([]byte(tt.data)))
		})
	}
}

func TestEncodePresenceUpdate(t *testing.T) {
	snap := NewSnapshot("lobby", []Member{
		{Identity: "2", Name: "bob"},
		{Identity: "1", Name: "alice"},
	})

	data, err := EncodePresenceUpdate(snap)
	require.NoError(t, err)

	var decoded PresenceUpdate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "presence_update", decoded.Type)
	assert.Equal(t, "lobby", decoded.RoomID)
	assert.Equal(t, 2, decoded.Count)
	require.Len(t, decoded.Members, 2)
	assert.Equal(t, "alice", decoded.Members[0].Name)
}

func TestEncodePresenceUpdate_EmptyRoom(t *testing.T) {
	data, err := EncodePresenceUpdate(NewSnapshot("lobby", nil))
	require.NoError(t, err)

	var decoded PresenceUpdate
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0, decoded.Count)
	assert.NotNil(t, decoded.Members)
	assert.Empty(t, decoded.Members)
}
