// Package otp issues and checks one-time verification codes.
package otp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/verificationcodes"
)

const CodeLength = 6

type Store struct {
	repo verificationcodes.Repository
	now  func() time.Time
}

func NewStore(repo verificationcodes.Repository) *Store {
	return &Store{repo: repo, now: time.Now}
}

// WithClock replaces the time source used for expiry checks.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Issue stores a fresh code for (email, purpose), replacing any earlier one.
func (s *Store) Issue(ctx context.Context, email string, purpose models.VerificationPurpose, expiresAt time.Time) (string, error) {
	code := common.NewNumericCode(CodeLength)

	err := s.repo.Upsert(ctx, &models.VerificationCode{
		Email:     email,
		Purpose:   purpose,
		Code:      code,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Validate checks a code without consuming it.
func (s *Store) Validate(ctx context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error) {
	vc, err := s.repo.Find(ctx, email, code, purpose)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidOTP
		}
		return nil, fmt.Errorf("find code: %w", err)
	}
	if vc.Expired(s.now()) {
		return nil, common.ErrOTPExpired
	}
	return vc, nil
}

// Consume deletes the code. A code that is already gone is not an error.
func (s *Store) Consume(ctx context.Context, email, code string, purpose models.VerificationPurpose) error {
	if err := s.repo.Delete(ctx, email, code, purpose); err != nil && !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("delete code: %w", err)
	}
	return nil
}
