// Package roles stores the role catalogue. Roles are only created by the
// startup bootstrap; request handling only reads them.
package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	FindByName(ctx context.Context, name string) (*models.Role, error)
	Create(ctx context.Context, role *models.Role) (*models.Role, error)
}
