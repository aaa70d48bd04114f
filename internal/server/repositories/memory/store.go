// Package memory keeps every repository in process memory behind one mutex.
// It backs the "memory" storage mode and the service tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type codeKey struct {
	email   string
	purpose models.VerificationPurpose
}

// Store holds all tables. Values are copied in and out so callers never
// share a pointer with the store.
type Store struct {
	mu sync.Mutex

	nextID  int64
	roles   map[int64]models.Role
	users   map[int64]models.User
	devices map[int64]models.Device
	tokens  map[string]models.RefreshToken
	codes   map[codeKey]models.VerificationCode

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		roles:   make(map[int64]models.Role),
		users:   make(map[int64]models.User),
		devices: make(map[int64]models.Device),
		tokens:  make(map[string]models.RefreshToken),
		codes:   make(map[codeKey]models.VerificationCode),
		now:     time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// Roles.

type Roles struct{ s *Store }

func (r Roles) FindByName(_ context.Context, name string) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, role := range r.s.roles {
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r Roles) Create(_ context.Context, role *models.Role) (*models.Role, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.roles {
		if existing.Name == role.Name {
			return nil, common.ErrorConflict
		}
	}
	role.ID = r.s.id()
	role.CreatedAt = r.s.now()
	r.s.roles[role.ID] = *role
	return role, nil
}

// Users.

type Users struct{ s *Store }

func (r Users) Create(_ context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	if _, ok := r.s.roles[user.RoleID]; !ok {
		return nil, common.ErrorNotFound
	}
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}

	user.ID = r.s.id()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Role = nil
	r.s.users[user.ID] = stored
	return user, nil
}

func (r Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return r.s.withRole(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r Users) FindByID(_ context.Context, id int64) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return r.s.withRole(u), nil
}

func (r Users) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	return r.update(id, func(u *models.User) { u.PasswordHash = passwordHash })
}

func (r Users) UpdateAvatar(_ context.Context, id int64, avatar string) error {
	return r.update(id, func(u *models.User) { u.Avatar = &avatar })
}

func (r Users) update(id int64, fn func(u *models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(&u)
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u
	return nil
}

// withRole must be called with mu held.
func (s *Store) withRole(u models.User) *models.User {
	if role, ok := s.roles[u.RoleID]; ok {
		u.Role = &role
	}
	return &u
}

// Devices.

type Devices struct{ s *Store }

func (r Devices) Create(_ context.Context, device *models.Device) (*models.Device, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[device.UserID]; !ok {
		return nil, common.ErrorNotFound
	}
	device.ID = r.s.id()
	device.CreatedAt = r.s.now()
	device.LastActive = device.CreatedAt
	device.IsActive = true
	r.s.devices[device.ID] = *device
	return device, nil
}

func (r Devices) Touch(_ context.Context, id int64, userAgent, ip string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.devices[id]
	if !ok {
		return common.ErrorNotFound
	}
	d.UserAgent = userAgent
	d.IP = ip
	d.LastActive = at
	r.s.devices[id] = d
	return nil
}

func (r Devices) Deactivate(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	d, ok := r.s.devices[id]
	if !ok {
		return common.ErrorNotFound
	}
	d.IsActive = false
	r.s.devices[id] = d
	return nil
}

// Device returns a copy of the stored device, for inspection in tests.
func (s *Store) Device(id int64) (models.Device, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[id]
	return d, ok
}

// RefreshTokens.

type RefreshTokens struct{ s *Store }

func (r RefreshTokens) Create(_ context.Context, token *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.tokens[token.Token]; ok {
		return common.ErrorConflict
	}
	token.CreatedAt = r.s.now()
	stored := *token
	stored.User = nil
	r.s.tokens[token.Token] = stored
	return nil
}

func (r RefreshTokens) FindWithUser(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rt, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	u, ok := r.s.users[rt.UserID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	rt.User = r.s.withRole(u)
	return &rt, nil
}

func (r RefreshTokens) Delete(_ context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rt, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	delete(r.s.tokens, token)
	return &rt, nil
}

// VerificationCodes.

type VerificationCodes struct{ s *Store }

func (r VerificationCodes) Upsert(_ context.Context, code *models.VerificationCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	code.CreatedAt = r.s.now()
	r.s.codes[codeKey{code.Email, code.Purpose}] = *code
	return nil
}

func (r VerificationCodes) Find(_ context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	vc, ok := r.s.codes[codeKey{email, purpose}]
	if !ok || vc.Code != code {
		return nil, common.ErrorNotFound
	}
	return &vc, nil
}

func (r VerificationCodes) Delete(_ context.Context, email, code string, purpose models.VerificationPurpose) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	k := codeKey{email, purpose}
	vc, ok := r.s.codes[k]
	if !ok || vc.Code != code {
		return common.ErrorNotFound
	}
	delete(r.s.codes, k)
	return nil
}

func (s *Store) Roles() Roles                         { return Roles{s} }
func (s *Store) Users() Users                         { return Users{s} }
func (s *Store) Devices() Devices                     { return Devices{s} }
func (s *Store) RefreshTokens() RefreshTokens         { return RefreshTokens{s} }
func (s *Store) VerificationCodes() VerificationCodes { return VerificationCodes{s} }
