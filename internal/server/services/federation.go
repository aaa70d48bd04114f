package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth.Profile, error)
}

// federationState round-trips the caller's client details through the
// provider. It is encoded but not signed.
type federationState struct {
	UserAgent string `json:"userAgent"`
	IP        string `json:"ip"`
}

// FederationService signs users in through an external identity provider,
// creating the local account on first use.
type FederationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      hashing.Hasher
	provider    IdentityProvider
	auth        *AuthService
	logger      logging.Logger
}

func NewFederationService(db *sql.DB, m repomanager.RepositoryManager, hasher hashing.Hasher,
	provider IdentityProvider, authService *AuthService, logger logging.Logger) *FederationService {
	return &FederationService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		provider:    provider,
		auth:        authService,
		logger:      logger.With("module", "federation"),
	}
}

func (s *FederationService) AuthorizationURL(userAgent, ip string) string {
	raw, _ := json.Marshal(federationState{UserAgent: userAgent, IP: ip})
	return s.provider.AuthCodeURL(base64.StdEncoding.EncodeToString(raw))
}

// Complete finishes the provider callback and opens a session. Provider and
// storage errors are returned as they are.
func (s *FederationService) Complete(ctx context.Context, code, state string) (*TokenPair, error) {
	st := s.decodeState(ctx, state)

	profile, err := s.provider.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if profile.Email == "" {
		return nil, common.ErrFederationEmailMissing
	}
	// Accounts are matched by email, so only a verified one may sign in.
	if !profile.VerifiedEmail {
		return nil, common.ErrFederationEmailUnverified
	}

	user, err := s.findOrProvision(ctx, profile)
	if err != nil {
		return nil, err
	}

	device, err := s.repomanager.Devices(s.db).Create(ctx, &models.Device{
		UserID:    user.ID,
		UserAgent: st.UserAgent,
		IP:        st.IP,
	})
	if err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	return s.auth.GenerateTokens(ctx, payloadFor(user, device.ID))
}

// decodeState never fails: unreadable state falls back to unknown client
// details.
func (s *FederationService) decodeState(ctx context.Context, state string) federationState {
	fallback := federationState{UserAgent: common.UnknownClient, IP: common.UnknownClient}

	raw, err := base64.StdEncoding.DecodeString(state)
	if err != nil {
		s.logger.Warn(ctx, "federation state is not base64", "error", err)
		return fallback
	}

	var st federationState
	if err := json.Unmarshal(raw, &st); err != nil {
		s.logger.Warn(ctx, "federation state is not json", "error", err)
		return fallback
	}
	if st.UserAgent == "" {
		st.UserAgent = common.UnknownClient
	}
	if st.IP == "" {
		st.IP = common.UnknownClient
	}
	return st
}

func (s *FederationService) findOrProvision(ctx context.Context, profile *oauth.Profile) (*models.User, error) {
	users := s.repomanager.Users(s.db)

	user, err := users.FindByEmail(ctx, profile.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	role, err := s.repomanager.Roles(s.db).FindByName(ctx, models.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("find client role: %w", err)
	}

	// The account gets a random password nobody knows; the owner can set one
	// through the forgot-password flow.
	hash, err := s.hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, err
	}

	u := &models.User{
		Email:        profile.Email,
		PasswordHash: hash,
		Name:         profile.Name,
		RoleID:       role.ID,
		Status:       models.UserStatusActive,
	}
	if profile.Picture != "" {
		u.Avatar = &profile.Picture
	}

	created, err := users.Create(ctx, u)
	if errors.Is(err, common.ErrorConflict) {
		// Lost a race with a concurrent first sign-in.
		return users.FindByEmail(ctx, profile.Email)
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	created.Role = role
	return created, nil
}
