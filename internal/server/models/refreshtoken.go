package models

import "time"

// RefreshToken is keyed by the signed token string and is single use.
type RefreshToken struct {
	Token     string
	UserID    int64
	DeviceID  int64
	ExpiresAt time.Time
	CreatedAt time.Time
	// User is populated by FindWithUser.
	User *User
}
