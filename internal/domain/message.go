package domain

import "encoding/json"

// ClientMessageKind enumerates inbound client message kinds.
// Dispatch happens on this enum, not on raw type strings.
type ClientMessageKind int

const (
	// ClientMessageUnknown covers anything the protocol does not recognise.
	// Unknown messages are ignored, not errors.
	ClientMessageUnknown ClientMessageKind = iota

	// ClientMessageWho asks for a presence snapshot pushed to the requesting
	// socket only.
	ClientMessageWho
)

const typePresenceUpdate = "presence_update"

// ParseClientMessage classifies an inbound frame. Malformed JSON and unknown
// type markers both map to ClientMessageUnknown.
func ParseClientMessage(data []byte) ClientMessageKind {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return ClientMessageUnknown
	}
	switch envelope.Type {
	case "who":
		return ClientMessageWho
	default:
		return ClientMessageUnknown
	}
}

// PresenceUpdate is the outbound wire message carrying a snapshot.
type PresenceUpdate struct {
	Type    string   `json:"type"`
	RoomID  string   `json:"roomId"`
	Count   int      `json:"count"`
	Members []Member `json:"members"`
}

// EncodePresenceUpdate serializes a snapshot into its wire form.
func EncodePresenceUpdate(s Snapshot) ([]byte, error) {
	return json.Marshal(PresenceUpdate{
		Type:    typePresenceUpdate,
		RoomID:  s.RoomID,
		Count:   s.Count,
		Members: s.Members,
	})
}
