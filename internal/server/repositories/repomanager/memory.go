package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophauth/internal/dbx"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/devices"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/roles"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
)

// MemoryRepositoryManager ignores the db handle it is given; every
// repository reads and writes the same memory.Store.
type MemoryRepositoryManager struct {
	store *memory.Store
	opts  options
}

func NewMemoryRepositoryManager(store *memory.Store, opts ...Option) *MemoryRepositoryManager {
	return &MemoryRepositoryManager{store: store, opts: buildOptions(opts)}
}

func (m *MemoryRepositoryManager) Store() *memory.Store { return m.store }

func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.store.Users() }

func (m *MemoryRepositoryManager) Roles(dbx.DBTX) roles.Repository { return m.store.Roles() }

func (m *MemoryRepositoryManager) Devices(dbx.DBTX) devices.Repository { return m.store.Devices() }

func (m *MemoryRepositoryManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return m.store.RefreshTokens()
}

func (m *MemoryRepositoryManager) VerificationCodes(dbx.DBTX) verificationcodes.Repository {
	if m.opts.codes != nil {
		return m.opts.codes
	}
	return m.store.VerificationCodes()
}
