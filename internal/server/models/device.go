package models

import "time"

// Device is one client session origin. Refresh tokens are bound to it.
type Device struct {
	ID         int64
	UserID     int64
	UserAgent  string
	IP         string
	LastActive time.Time
	CreatedAt  time.Time
	IsActive   bool
}
