package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Network1945/backend/internal/domain"
)

// RoomRepo stores room records in PostgreSQL.
type RoomRepo struct {
	pool *pgxpool.Pool
}

// NewRoomRepo creates a RoomRepo on the shared pool.
func NewRoomRepo(pool *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{pool: pool}
}

// newRoomID generates an 8-character slug, the shape clients already use as
// the websocket partition key.
func newRoomID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Create inserts a new room with a server-generated id.
func (r *RoomRepo) Create(ctx context.Context, title string, createdBy uuid.UUID) (*domain.Room, error) {
	var room domain.Room
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rooms (id, title, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, title, created_by, created_at
	`, newRoomID(), title, createdBy).Scan(&room.ID, &room.Title, &room.CreatedBy, &room.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}
	return &room, nil
}

// List returns all rooms, newest first.
func (r *RoomRepo) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, created_by, created_at
		FROM rooms
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		if err := rows.Scan(&room.ID, &room.Title, &room.CreatedBy, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rooms: %w", err)
	}
	return rooms, nil
}

// Get fetches a room by id.
func (r *RoomRepo) Get(ctx context.Context, id string) (*domain.Room, error) {
	var room domain.Room
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, created_by, created_at
		FROM rooms
		WHERE id = $1
	`, id).Scan(&room.ID, &room.Title, &room.CreatedBy, &room.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	return &room, nil
}
