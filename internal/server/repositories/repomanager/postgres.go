package repomanager

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/migrations"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/devices"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
)

type PostgresRepositoryManager struct {
	opts options
}

func NewPostgresRepositoryManager(opts ...Option) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{opts: buildOptions(opts)}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Roles(db dbx.DBTX) roles.Repository {
	return roles.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Devices(db dbx.DBTX) devices.Repository {
	return devices.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) VerificationCodes(db dbx.DBTX) verificationcodes.Repository {
	if m.opts.codes != nil {
		return m.opts.codes
	}
	return verificationcodes.NewPostgresRepository(db)
}

// gooseUpContext is replaced in tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies the embedded goose migrations.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}
