package domain

import "errors"

var (
	// ErrUserNotFound is returned when a user lookup matches no account.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when signup collides with an existing name.
	ErrUserExists = errors.New("user already exists")

	// ErrRoomNotFound is returned when a room lookup matches no record.
	ErrRoomNotFound = errors.New("room not found")

	// ErrInvalidCredentials is returned on login with a wrong name or password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a JWT fails verification or has expired.
	ErrInvalidToken = errors.New("invalid token")
)
