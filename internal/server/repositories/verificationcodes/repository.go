// Package verificationcodes stores one-time codes keyed by (email, purpose).
package verificationcodes

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Upsert replaces any existing code for the same email and purpose.
	Upsert(ctx context.Context, code *models.VerificationCode) error
	// Find returns common.ErrorNotFound unless all three values match.
	Find(ctx context.Context, email, code string, purpose models.VerificationPurpose) (*models.VerificationCode, error)
	// Delete returns common.ErrorNotFound when nothing matched.
	Delete(ctx context.Context, email, code string, purpose models.VerificationPurpose) error
}
