package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. Name doubles as the login identifier.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
