package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// bcrypt only hashes the first 72 bytes; max=72 counts runes, so bytes are
// checked separately.
const bcryptMaxBytes = 72

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("purpose", func(fl validator.FieldLevel) bool {
		return models.VerificationPurpose(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("bcrypt", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= bcryptMaxBytes
	})
	return v
}

// validationErrors turns a validator failure into the 422 body. Errors that
// are not field failures come back as nil.
func validationErrors(err error) []fieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}

	out := make([]fieldError, 0, len(ve))
	for _, fe := range ve {
		out = append(out, fieldError{Field: fe.Field(), Message: messageFor(fe)})
	}
	return out
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Required"
	case "email":
		return "Invalid email"
	case "min":
		return "Must be at least " + fe.Param() + " characters"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case "len":
		return "Must be exactly " + fe.Param() + " characters"
	case "bcrypt":
		return "Must be at most 72 bytes"
	case "purpose":
		return "Invalid verification code type"
	case "eqfield":
		switch fe.Field() {
		case "confirmNewPassword":
			return "newPassword and confirmNewPassword not match"
		default:
			return "Password and confirm password must match"
		}
	}
	return "Invalid value"
}

type sendOTPRequest struct {
	Email string                     `json:"email" validate:"required,email"`
	Type  models.VerificationPurpose `json:"type" validate:"purpose"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6,max=72,bcrypt"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,min=6,max=72,eqfield=Password"`
	Name            string `json:"name" validate:"required,max=100"`
	PhoneNumber     string `json:"phoneNumber" validate:"omitempty,max=20"`
	Code            string `json:"code" validate:"required,len=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72,bcrypt"`
}

// refreshTokenRequest is used by both refresh and logout.
type refreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type forgotPasswordRequest struct {
	Email              string `json:"email" validate:"required,email"`
	Code               string `json:"code" validate:"required,len=6"`
	NewPassword        string `json:"newPassword" validate:"required,min=6,max=72,bcrypt"`
	ConfirmNewPassword string `json:"confirmNewPassword" validate:"required,min=6,max=72,eqfield=NewPassword"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type authorizationURLResponse struct {
	URL string `json:"url"`
}
