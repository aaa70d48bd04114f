// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is / errors.As to match these
// values and never compare error strings.
package common

import "errors"

var (
	// Repository-level errors. Storage adapters translate engine-specific
	// failures into these two so services can branch on them.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Token errors returned by the signer.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Kind classifies a DomainError for transports.
type Kind int

const (
	// KindInternal is the zero kind; errors that are not DomainErrors resolve to it.
	KindInternal Kind = iota
	// KindValidation errors are user-actionable and carry a field path.
	KindValidation
	// KindUnauthorized errors are intentionally low-detail.
	KindUnauthorized
)

// DomainError is an expected, typed failure of an auth operation.
type DomainError struct {
	Kind    Kind
	Code    string
	Field   string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

var (
	ErrInvalidOTP = &DomainError{Kind: KindValidation, Code: "invalid_otp", Field: "code", Message: "invalid OTP code"}
	ErrOTPExpired = &DomainError{Kind: KindValidation, Code: "otp_expired", Field: "code", Message: "OTP code has expired"}

	ErrEmailAlreadyExists = &DomainError{Kind: KindValidation, Code: "email_already_exists", Field: "email", Message: "email already exists"}
	ErrEmailNotFound      = &DomainError{Kind: KindValidation, Code: "email_not_found", Field: "email", Message: "email does not exist"}
	ErrIncorrectPassword  = &DomainError{Kind: KindValidation, Code: "incorrect_password", Field: "password", Message: "password is incorrect"}
	ErrFailedToSendOTP    = &DomainError{Kind: KindValidation, Code: "failed_to_send_otp", Field: "code", Message: "failed to send OTP code"}

	ErrFederationEmailMissing    = &DomainError{Kind: KindValidation, Code: "federation_email_missing", Field: "email", Message: "provider profile has no email"}
	ErrFederationEmailUnverified = &DomainError{Kind: KindValidation, Code: "federation_email_unverified", Field: "email", Message: "provider email is not verified"}

	ErrorUnauthorized      = &DomainError{Kind: KindUnauthorized, Code: "unauthorized", Message: "unauthorized"}
	ErrRefreshTokenRevoked = &DomainError{Kind: KindUnauthorized, Code: "refresh_token_revoked", Message: "refresh token has been revoked"}
)

// KindOf reports the kind of the first DomainError in err's chain.
func KindOf(err error) Kind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsDomain reports whether err wraps a DomainError.
func IsDomain(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
