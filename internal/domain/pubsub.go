package domain

// GroupMessage is a message relayed between instances for a broadcast group.
type GroupMessage struct {
	Group   string
	Payload []byte
}
