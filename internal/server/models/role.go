package models

import "time"

const (
	RoleAdmin  = "Admin"
	RoleClient = "Client"
)

type Role struct {
	ID          int64
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
}
