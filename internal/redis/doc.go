// Package redis implements the Redis-backed presence store and relay.
//
// Provides PresenceStore (atomic per-room connection counting + membership via
// Lua scripts), PubSubRelay (cross-instance broadcast fabric), and client hooks
// for metrics and circuit breaking.
package redis
