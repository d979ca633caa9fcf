package domain

import (
	"time"

	"github.com/google/uuid"
)

// Room is a chat/game room record. The presence core only ever uses ID as a
// partition key; the remaining fields belong to the CRUD surface.
type Room struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedBy uuid.UUID `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
