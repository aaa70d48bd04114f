package verificationcodes

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

func (r *PostgresRepository) Upsert(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_codes (email, type, code, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (email, type) DO UPDATE
		SET code = EXCLUDED.code, expires_at = EXCLUDED.expires_at, created_at = now()
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, code.Email, code.Purpose, code.Code, code.ExpiresAt).
		Scan(&code.CreatedAt)
	if err != nil {
		return dbx.Translate(err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	query := `
		SELECT email, type, code, expires_at, created_at
		FROM verification_codes
		WHERE email = $1 AND code = $2 AND type = $3
	`
	vc := &models.VerificationCode{}
	err := r.db.QueryRowContext(ctx, query, email, code, purpose).
		Scan(&vc.Email, &vc.Purpose, &vc.Code, &vc.ExpiresAt, &vc.CreatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return vc, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, email, code string, purpose models.VerificationPurpose) error {
	query := `
		DELETE FROM verification_codes
		WHERE email = $1 AND code = $2 AND type = $3
	`
	res, err := r.db.ExecContext(ctx, query, email, code, purpose)
	if err != nil {
		return dbx.Translate(err)
	}
	return dbx.ExpectAffected(res)
}
