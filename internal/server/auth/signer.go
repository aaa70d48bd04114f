// Package auth signs and verifies the two token classes. Access and refresh
// tokens use separate HS256 secrets so one class can never pass as the other.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
)

type AccessPayload struct {
	UserID   int64
	DeviceID int64
	RoleID   int64
	RoleName string
}

type RefreshPayload struct {
	UserID int64
}

type AccessClaims struct {
	jwt.RegisteredClaims
	UserID   int64  `json:"userId"`
	DeviceID int64  `json:"deviceId"`
	RoleID   int64  `json:"roleId"`
	RoleName string `json:"roleName"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID int64 `json:"userId"`
}

type Signer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewSigner(cfg *config.Config) *Signer {
	return &Signer{
		accessSecret:  []byte(cfg.AccessTokenSecret),
		refreshSecret: []byte(cfg.RefreshTokenSecret),
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		now:           time.Now,
	}
}

// WithClock replaces the time source used for iat/exp and for verification.
func (s *Signer) WithClock(now func() time.Time) *Signer {
	s.now = now
	return s
}

func (s *Signer) SignAccess(p AccessPayload) (string, error) {
	now := s.now()
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
		UserID:   p.UserID,
		DeviceID: p.DeviceID,
		RoleID:   p.RoleID,
		RoleName: p.RoleName,
	}
	return s.sign(claims, s.accessSecret)
}

// SignRefresh adds a random jti so two tokens minted for the same user in
// the same second still differ.
func (s *Signer) SignRefresh(p RefreshPayload) (string, error) {
	now := s.now()
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTTL)),
		},
		UserID: p.UserID,
	}
	return s.sign(claims, s.refreshSecret)
}

func (s *Signer) VerifyAccess(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(token, claims, s.accessSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Signer) VerifyRefresh(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(token, claims, s.refreshSecret); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Signer) sign(claims jwt.Claims, secret []byte) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// parse fails with common.ErrInvalidToken; an expired token also matches
// common.ErrTokenExpired.
func (s *Signer) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired)
		}
		return fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
