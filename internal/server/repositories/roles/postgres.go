package roles

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	query := `
		SELECT id, name, description, is_active, created_at
		FROM roles
		WHERE name = $1
	`
	role := &models.Role{}
	err := r.db.QueryRowContext(ctx, query, name).
		Scan(&role.ID, &role.Name, &role.Description, &role.IsActive, &role.CreatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return role, nil
}

func (r *PostgresRepository) Create(ctx context.Context, role *models.Role) (*models.Role, error) {
	query := `
		INSERT INTO roles (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, role.Name, role.Description, role.IsActive).
		Scan(&role.ID, &role.CreatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return role, nil
}
