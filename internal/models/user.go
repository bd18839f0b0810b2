package models

import "time"

// User represents a registered account on the server.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's login, stored lowercased.
	Email string

	// DisplayName is shown to other participants.
	DisplayName string

	// PasswordHash is the bcrypt hash. Never sent over the wire.
	PasswordHash string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PushToken is a device registration for push notifications.
type PushToken struct {
	Token     string
	UserID    string
	DeviceID  string
	Platform  string
	CreatedAt time.Time
}
