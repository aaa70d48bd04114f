// Package refreshtokens stores issued refresh tokens. A token row is the
// proof that the token is still unused: rotation and logout delete it.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.RefreshToken) error

	// FindWithUser returns the token with its owner and the owner's role.
	FindWithUser(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes the token and returns the removed row. Of two concurrent
	// deletes of the same token exactly one succeeds; the other gets
	// common.ErrorNotFound.
	Delete(ctx context.Context, token string) (*models.RefreshToken, error)
}
