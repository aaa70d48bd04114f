package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

var seedRoles = []models.Role{
	{Name: models.RoleAdmin, Description: "Administrator", IsActive: true},
	{Name: models.RoleClient, Description: "Client", IsActive: true},
}

// Bootstrap seeds the roles and, when configured, an admin account. Running
// it again changes nothing.
type Bootstrap struct {
	repomanager repomanager.RepositoryManager
	hasher      hashing.Hasher
	config      *config.Config
	logger      logging.Logger
}

func NewBootstrap(m repomanager.RepositoryManager, hasher hashing.Hasher, cfg *config.Config, logger logging.Logger) *Bootstrap {
	return &Bootstrap{repomanager: m, hasher: hasher, config: cfg, logger: logger.With("module", "bootstrap")}
}

// RunTx seeds inside one transaction on db.
func (b *Bootstrap) RunTx(ctx context.Context, db *sql.DB) error {
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return b.Run(ctx, tx)
	})
}

// Run seeds through the given handle.
func (b *Bootstrap) Run(ctx context.Context, db dbx.DBTX) error {
	roles := make(map[string]*models.Role, len(seedRoles))
	for _, r := range seedRoles {
		role, err := b.ensureRole(ctx, db, r)
		if err != nil {
			return err
		}
		roles[role.Name] = role
	}

	if b.config.AdminEmail == "" || b.config.AdminPassword == "" {
		return nil
	}

	users := b.repomanager.Users(db)
	if _, err := users.FindByEmail(ctx, b.config.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("find admin: %w", err)
	}

	hash, err := b.hasher.Hash(b.config.AdminPassword)
	if err != nil {
		return err
	}

	_, err = users.Create(ctx, &models.User{
		Email:        b.config.AdminEmail,
		PasswordHash: hash,
		Name:         b.config.AdminName,
		PhoneNumber:  b.config.AdminPhone,
		RoleID:       roles[models.RoleAdmin].ID,
		Status:       models.UserStatusActive,
	})
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}

	b.logger.Info(ctx, "admin account created", "email", b.config.AdminEmail)
	return nil
}

func (b *Bootstrap) ensureRole(ctx context.Context, db dbx.DBTX, r models.Role) (*models.Role, error) {
	repo := b.repomanager.Roles(db)

	role, err := repo.FindByName(ctx, r.Name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("find role %s: %w", r.Name, err)
	}

	role, err = repo.Create(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("create role %s: %w", r.Name, err)
	}
	b.logger.Info(ctx, "role created", "role", r.Name)
	return role, nil
}
