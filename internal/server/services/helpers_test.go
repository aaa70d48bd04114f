package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/otp"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/memory"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// fakeGateway remembers the last code sent to each address.
type fakeGateway struct {
	mu    sync.Mutex
	codes map[string]string
	err   error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{codes: make(map[string]string)}
}

func (g *fakeGateway) SendOTP(_ context.Context, email, code string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.codes[email] = code
	return g.err
}

func (g *fakeGateway) last(email string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.codes[email]
}

type env struct {
	cfg     *config.Config
	store   *memory.Store
	manager *repomanager.MemoryRepositoryManager
	hasher  hashing.Hasher
	signer  *auth.Signer
	codes   *otp.Store
	gateway *fakeGateway
	auth    *AuthService
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Storage = config.StorageMemory
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

// newEnv wires an AuthService over the memory store with the roles seeded.
func newEnv(t *testing.T) *env {
	t.Helper()

	e := &env{cfg: testConfig(), store: memory.NewStore(), gateway: newFakeGateway()}
	e.manager = repomanager.NewMemoryRepositoryManager(e.store)
	e.hasher = hashing.NewBcryptHasher(e.cfg.BcryptCost)
	e.signer = auth.NewSigner(e.cfg)
	e.codes = otp.NewStore(e.manager.VerificationCodes(nil))
	e.auth = NewAuthService(nil, e.manager, e.hasher, e.signer, e.codes, e.gateway, e.cfg, logging.NewNop())

	require.NoError(t, NewBootstrap(e.manager, e.hasher, e.cfg, logging.NewNop()).Run(context.Background(), nil))
	return e
}

// register runs SendOTP + Register for email with password.
func (e *env) register(t *testing.T, email, password string) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, e.auth.SendOTP(ctx, email, "REGISTER"))
	_, err := e.auth.Register(ctx, RegisterInput{
		Email:    email,
		Password: password,
		Name:     "Test User",
		Code:     e.gateway.last(email),
	})
	require.NoError(t, err)
}

var errBoom = errors.New("boom")

