// Package domain defines the core domain types shared across the service.
//
// Concept-oriented files (presence.go, message.go, user.go, room.go, errors.go)
// hold shared types and sentinel errors. No implementation code - just contracts.
// Cross-cutting interfaces live on the consumer side to prevent circular imports.
package domain
