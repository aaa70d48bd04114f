package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// WithRoleColumns selects a user joined to its role, aliased u and r.
// Scan the row with ScanTargets.
const WithRoleColumns = `u.id, u.email, u.password_hash, u.name, u.phone_number, u.avatar, u.totp_secret,
		u.role_id, u.status, u.created_at, u.updated_at,
		r.id, r.name, r.description, r.is_active`

// ScanTargets allocates u.Role and returns the destinations matching
// WithRoleColumns, in order.
func ScanTargets(u *models.User) []any {
	u.Role = &models.Role{}
	return []any{
		&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.PhoneNumber, &u.Avatar, &u.TOTPSecret,
		&u.RoleID, &u.Status, &u.CreatedAt, &u.UpdatedAt,
		&u.Role.ID, &u.Role.Name, &u.Role.Description, &u.Role.IsActive,
	}
}

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, password_hash, name, phone_number, avatar, role_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, user.Name, user.PhoneNumber, user.Avatar, user.RoleID, user.Status,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, dbx.Translate(err)
	}
	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT ` + WithRoleColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1
	`
	return r.findOne(ctx, query, email)
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT ` + WithRoleColumns + `
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1
	`
	return r.findOne(ctx, query, id)
}

func (r *PostgresRepository) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(ScanTargets(user)...); err != nil {
		return nil, dbx.Translate(err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return dbx.Translate(err)
	}
	return dbx.ExpectAffected(res)
}

func (r *PostgresRepository) UpdateAvatar(ctx context.Context, id int64, avatar string) error {
	query := `
		UPDATE users SET avatar = $2, updated_at = now()
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, avatar)
	if err != nil {
		return dbx.Translate(err)
	}
	return dbx.ExpectAffected(res)
}
