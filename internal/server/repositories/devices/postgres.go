package devices

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, device *models.Device) (*models.Device, error) {
	query := `
		INSERT INTO devices (user_id, user_agent, ip, last_active, is_active)
		VALUES ($1, $2, $3, now(), true)
		RETURNING id, last_active, created_at, is_active
	`
	err := r.db.QueryRowContext(ctx, query, device.UserID, device.UserAgent, device.IP).
		Scan(&device.ID, &device.LastActive, &device.CreatedAt, &device.IsActive)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return device, nil
}

func (r *PostgresRepository) Touch(ctx context.Context, id int64, userAgent, ip string, at time.Time) error {
	query := `
		UPDATE devices SET user_agent = $2, ip = $3, last_active = $4
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, userAgent, ip, at)
	if err != nil {
		return dbx.Translate(err)
	}
	return dbx.ExpectAffected(res)
}

func (r *PostgresRepository) Deactivate(ctx context.Context, id int64) error {
	query := `
		UPDATE devices SET is_active = false
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return dbx.Translate(err)
	}
	return dbx.ExpectAffected(res)
}
