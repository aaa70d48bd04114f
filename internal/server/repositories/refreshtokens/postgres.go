package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (token, user_id, device_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, token.Token, token.UserID, token.DeviceID, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		return dbx.Translate(err)
	}
	return nil
}

func (r *PostgresRepository) FindWithUser(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT t.token, t.user_id, t.device_id, t.expires_at, t.created_at,
		` + users.WithRoleColumns + `
		FROM refresh_tokens t
		JOIN users u ON u.id = t.user_id
		JOIN roles r ON r.id = u.role_id
		WHERE t.token = $1
	`
	rt := &models.RefreshToken{User: &models.User{}}
	dest := append([]any{&rt.Token, &rt.UserID, &rt.DeviceID, &rt.ExpiresAt, &rt.CreatedAt}, users.ScanTargets(rt.User)...)

	if err := r.db.QueryRowContext(ctx, query, token).Scan(dest...); err != nil {
		return nil, dbx.Translate(err)
	}
	return rt, nil
}

// Delete relies on DELETE ... RETURNING: the row lock makes a concurrent
// second delete see no row.
func (r *PostgresRepository) Delete(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE token = $1
		RETURNING token, user_id, device_id, expires_at, created_at
	`
	rt := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, token).
		Scan(&rt.Token, &rt.UserID, &rt.DeviceID, &rt.ExpiresAt, &rt.CreatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return rt, nil
}
