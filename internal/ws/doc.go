// Package ws is the websocket entry point for room presence.
//
// Gateway authenticates a connecting socket, derives (room, identity), wires a
// session to the store and broadcaster, and maps session outcomes to close
// codes. Conn wraps a gorilla connection with a single-writer goroutine.
package ws
