// Package services holds the authentication use cases. Services keep no state
// of their own: everything lives behind the repository manager, so any number
// of requests may run through one instance concurrently.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/hashing"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/notify"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// TokenSigner is the part of auth.Signer the services use.
type TokenSigner interface {
	SignAccess(p auth.AccessPayload) (string, error)
	SignRefresh(p auth.RefreshPayload) (string, error)
	VerifyRefresh(token string) (*auth.RefreshClaims, error)
}

// CodeStore is the part of otp.Store the services use.
type CodeStore interface {
	Issue(ctx context.Context, email string, purpose models.VerificationPurpose, expiresAt time.Time) (string, error)
	Validate(ctx context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error)
	Consume(ctx context.Context, email, code string, purpose models.VerificationPurpose) error
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type TokenPayload struct {
	UserID   int64
	DeviceID int64
	RoleID   int64
	RoleName string
}

type RegisterInput struct {
	Email       string
	Password    string
	Name        string
	PhoneNumber string
	Code        string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IP        string
}

type RefreshInput struct {
	RefreshToken string
	UserAgent    string
	IP           string
}

type ForgotPasswordInput struct {
	Email       string
	Code        string
	NewPassword string
}

type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      hashing.Hasher
	signer      TokenSigner
	codes       CodeStore
	gateway     notify.Gateway
	otpTTL      time.Duration
	logger      logging.Logger
	now         func() time.Time
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, hasher hashing.Hasher, signer TokenSigner,
	codes CodeStore, gateway notify.Gateway, cfg *config.Config, logger logging.Logger) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		signer:      signer,
		codes:       codes,
		gateway:     gateway,
		otpTTL:      cfg.OTPTTL,
		logger:      logger.With("module", "auth"),
		now:         time.Now,
	}
}

// SendOTP issues a code for purpose and mails it. A REGISTER code needs a
// free email and a FORGOT_PASSWORD code an existing one. When delivery fails
// the code stays stored and ErrFailedToSendOTP is returned.
func (s *AuthService) SendOTP(ctx context.Context, email string, purpose models.VerificationPurpose) error {
	_, err := s.repomanager.Users(s.db).FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("find user: %w", err)
	}
	exists := err == nil

	switch {
	case purpose == models.PurposeRegister && exists:
		return common.ErrEmailAlreadyExists
	case purpose == models.PurposeForgotPassword && !exists:
		return common.ErrEmailNotFound
	}

	code, err := s.codes.Issue(ctx, email, purpose, s.now().Add(s.otpTTL))
	if err != nil {
		return err
	}

	if err := s.gateway.SendOTP(ctx, email, code); err != nil {
		s.logger.Warn(ctx, "otp delivery failed", "email", email, "purpose", purpose, "error", err)
		return common.ErrFailedToSendOTP
	}
	return nil
}

// Register creates a Client account once the REGISTER code checks out.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.PublicUser, error) {
	if _, err := s.codes.Validate(ctx, in.Email, in.Code, models.PurposeRegister); err != nil {
		return nil, err
	}

	role, err := s.repomanager.Roles(s.db).FindByName(ctx, models.RoleClient)
	if err != nil {
		return nil, fmt.Errorf("find client role: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	// Both tasks always run to completion and neither is undone when the
	// other fails: a consumed code with no user, or a user whose code is
	// still live, are accepted outcomes.
	var (
		created   *models.User
		createErr error
		g         errgroup.Group
	)
	g.Go(func() error {
		created, createErr = s.repomanager.Users(s.db).Create(ctx, &models.User{
			Email:        in.Email,
			PasswordHash: hash,
			Name:         in.Name,
			PhoneNumber:  in.PhoneNumber,
			RoleID:       role.ID,
			Status:       models.UserStatusActive,
		})
		return createErr
	})
	g.Go(func() error {
		return s.codes.Consume(ctx, in.Email, in.Code, models.PurposeRegister)
	})

	err = g.Wait()
	if errors.Is(createErr, common.ErrorConflict) {
		return nil, common.ErrEmailAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return created.Public(), nil
}

// Login checks the password and opens a session on a new device. Unknown
// email and wrong password are reported separately.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenPair, error) {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrEmailNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Compare(in.Password, user.PasswordHash) {
		return nil, common.ErrIncorrectPassword
	}

	device, err := s.repomanager.Devices(s.db).Create(ctx, &models.Device{
		UserID:    user.ID,
		UserAgent: in.UserAgent,
		IP:        in.IP,
	})
	if err != nil {
		return nil, fmt.Errorf("create device: %w", err)
	}

	return s.GenerateTokens(ctx, payloadFor(user, device.ID))
}

// GenerateTokens signs a pair and persists the refresh token. A pair is never
// returned without its stored row.
func (s *AuthService) GenerateTokens(ctx context.Context, p TokenPayload) (*TokenPair, error) {
	var (
		pair TokenPair
		g    errgroup.Group
	)
	g.Go(func() (err error) {
		pair.AccessToken, err = s.signer.SignAccess(auth.AccessPayload{
			UserID:   p.UserID,
			DeviceID: p.DeviceID,
			RoleID:   p.RoleID,
			RoleName: p.RoleName,
		})
		return err
	})
	g.Go(func() (err error) {
		pair.RefreshToken, err = s.signer.SignRefresh(auth.RefreshPayload{UserID: p.UserID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	claims, err := s.signer.VerifyRefresh(pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: decode refresh token: %w", common.ErrorInternal, err)
	}

	err = s.repomanager.RefreshTokens(s.db).Create(ctx, &models.RefreshToken{
		Token:     pair.RefreshToken,
		UserID:    p.UserID,
		DeviceID:  p.DeviceID,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: store refresh token: %w", common.ErrorInternal, err)
	}

	return &pair, nil
}

// RefreshToken rotates a refresh token on the same device. Failures that are
// not domain errors are logged and reported as ErrorUnauthorized.
func (s *AuthService) RefreshToken(ctx context.Context, in RefreshInput) (*TokenPair, error) {
	pair, err := s.rotate(ctx, in)
	if err != nil {
		if common.IsDomain(err) {
			return nil, err
		}
		s.logger.Error(ctx, "refresh token failed", "error", err)
		return nil, common.ErrorUnauthorized
	}
	return pair, nil
}

func (s *AuthService) rotate(ctx context.Context, in RefreshInput) (*TokenPair, error) {
	if _, err := s.signer.VerifyRefresh(in.RefreshToken); err != nil {
		return nil, common.ErrorUnauthorized
	}

	stored, err := s.repomanager.RefreshTokens(s.db).FindWithUser(ctx, in.RefreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	// The three tasks run to completion even if one fails and nothing is
	// rolled back. Of two concurrent rotations of the same token only one
	// delete succeeds, so only one caller gets a pair; the other may leave an
	// unused token row behind.
	var (
		pair *TokenPair
		g    errgroup.Group
	)
	g.Go(func() error {
		err := s.repomanager.Devices(s.db).Touch(ctx, stored.DeviceID, in.UserAgent, in.IP, s.now())
		if err != nil {
			return fmt.Errorf("touch device: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.repomanager.RefreshTokens(s.db).Delete(ctx, in.RefreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrRefreshTokenRevoked
			}
			return fmt.Errorf("delete refresh token: %w", err)
		}
		return nil
	})
	g.Go(func() (err error) {
		pair, err = s.GenerateTokens(ctx, payloadFor(stored.User, stored.DeviceID))
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the refresh token and deactivates its device.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if _, err := s.signer.VerifyRefresh(refreshToken); err != nil {
		return common.ErrorUnauthorized
	}

	deleted, err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrRefreshTokenRevoked
		}
		return fmt.Errorf("delete refresh token: %w", err)
	}

	err = s.repomanager.Devices(s.db).Deactivate(ctx, deleted.DeviceID)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("deactivate device: %w", err)
	}
	return nil
}

// ForgotPassword sets a new password once the FORGOT_PASSWORD code checks out.
// Existing sessions are left alone.
func (s *AuthService) ForgotPassword(ctx context.Context, in ForgotPasswordInput) error {
	user, err := s.repomanager.Users(s.db).FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrEmailNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if _, err := s.codes.Validate(ctx, in.Email, in.Code, models.PurposeForgotPassword); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return err
	}

	// No rollback between the two writes.
	var g errgroup.Group
	g.Go(func() error {
		return s.repomanager.Users(s.db).UpdatePassword(ctx, user.ID, hash)
	})
	g.Go(func() error {
		return s.codes.Consume(ctx, in.Email, in.Code, models.PurposeForgotPassword)
	})
	return g.Wait()
}

// Profile returns the public view of the user behind an access token.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.PublicUser, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user.Public(), nil
}

func payloadFor(u *models.User, deviceID int64) TokenPayload {
	p := TokenPayload{UserID: u.ID, DeviceID: deviceID, RoleID: u.RoleID}
	if u.Role != nil {
		p.RoleName = u.Role.Name
	}
	return p
}
