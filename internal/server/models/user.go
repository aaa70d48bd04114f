// Package models defines the records persisted by the auth service.
package models

import "time"

type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusInactive UserStatus = "INACTIVE"
	UserStatusBlocked  UserStatus = "BLOCKED"
)

// User is an account. PasswordHash and TOTPSecret never leave the service;
// callers outside it get a PublicUser.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	PhoneNumber  string
	Avatar       *string
	TOTPSecret   *string
	RoleID       int64
	// Role is populated only by lookups that include the role.
	Role      *Role
	Status    UserStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PublicUser is the profile shape returned to clients.
type PublicUser struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phoneNumber"`
	Avatar      *string    `json:"avatar"`
	RoleID      int64      `json:"roleId"`
	Status      UserStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		Avatar:      u.Avatar,
		RoleID:      u.RoleID,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
