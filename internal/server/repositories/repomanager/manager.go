// Package repomanager hands out repositories bound to a database handle, so
// services can run the same code against *sql.DB or inside a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/devices"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	Devices(db dbx.DBTX) devices.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	VerificationCodes(db dbx.DBTX) verificationcodes.Repository
}

type options struct {
	codes verificationcodes.Repository
}

type Option func(*options)

// WithVerificationCodes stores codes in repo instead of the manager's own
// backend, e.g. a verificationcodes.RedisRepository.
func WithVerificationCodes(repo verificationcodes.Repository) Option {
	return func(o *options) { o.codes = repo }
}

func buildOptions(opts []Option) options {
	var o options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
