// Package session implements the per-connection presence state machine.
//
// One Session per accepted websocket, owning exactly one (room, identity) pair
// for its lifetime. All cross-session coordination goes through the shared
// store and the broadcaster; a session's local fields are touched only by its
// own goroutines.
package session
