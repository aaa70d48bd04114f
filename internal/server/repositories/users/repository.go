// Package users declares and implements storage for user accounts.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository stores users. Lookups return the user with its Role populated.
// Create fails with common.ErrorConflict on a duplicate email and lookups
// or updates of a missing user fail with common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateAvatar(ctx context.Context, id int64, avatar string) error
}
