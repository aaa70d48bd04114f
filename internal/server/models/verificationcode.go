package models

import "time"

type VerificationPurpose string

const (
	PurposeRegister       VerificationPurpose = "REGISTER"
	PurposeForgotPassword VerificationPurpose = "FORGOT_PASSWORD"
	PurposeLogin          VerificationPurpose = "LOGIN"
	PurposeDisable2FA     VerificationPurpose = "DISABLE_2FA"
)

func (p VerificationPurpose) Valid() bool {
	switch p {
	case PurposeRegister, PurposeForgotPassword, PurposeLogin, PurposeDisable2FA:
		return true
	}
	return false
}

// VerificationCode is a one-time code. There is at most one per
// (Email, Purpose); issuing again replaces it.
type VerificationCode struct {
	Email     string
	Purpose   VerificationPurpose
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c *VerificationCode) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}
