package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuth            Kind = "auth"
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
)

// Error carries a client-safe message. Anything that is not an *Error is
// reported to clients as an internal failure.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches on kind and message so wrapped copies compare equal to the sentinels.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func newError(kind Kind, msg string) *Error { return &Error{Kind: kind, Message: msg} }

// Wrap attaches a cause to a sentinel without changing its client message.
func Wrap(sentinel *Error, cause error) error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Cause: cause}
}

// AsError extracts the classified error, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

var (
	// signup / profile validation
	ErrMissingFields      = newError(KindValidation, "Please fill all fields")
	ErrPasswordTooShort   = newError(KindValidation, "Password must be at least 6 characters")
	ErrEmailTaken         = newError(KindValidation, "Email already exists")
	ErrEmailRequired      = newError(KindValidation, "Email is required")
	ErrResetFieldsMissing = newError(KindValidation, "Token and new password are required")
	ErrPictureRequired    = newError(KindValidation, "Profile picture is required")
	ErrEmptyMessage       = newError(KindValidation, "Message must contain text or an image")
	ErrInvalidImage       = newError(KindValidation, "Image must be a base64 data URI")
	ErrInvalidID          = newError(KindValidation, "Invalid id")

	// code and credential checks
	ErrInvalidCredentials   = newError(KindAuth, "Invalid credentials")
	ErrEmailNotVerified     = newError(KindAuth, "Please verify your email before logging in")
	ErrInvalidVerification  = newError(KindAuth, "Invalid verification session")
	ErrVerificationExpired  = newError(KindAuth, "Verification session expired")
	ErrSignupCodeExpired    = newError(KindAuth, "Verification code expired. Please sign up again.")
	ErrInvalidSignupCode    = newError(KindAuth, "Invalid verification code")
	ErrInvalidOrExpiredCode = newError(KindAuth, "Invalid or expired code")
	ErrInvalidSession       = newError(KindAuth, "Invalid session")
	ErrAlreadyVerified      = newError(KindAuth, "Account already verified")
	ErrInvalidResetToken    = newError(KindAuth, "Invalid or expired reset token")

	// session middleware
	ErrNoToken      = newError(KindUnauthenticated, "Unauthorized - No Token Provided")
	ErrInvalidToken = newError(KindUnauthenticated, "Unauthorized - Invalid Token")

	ErrUserNotFound = newError(KindNotFound, "User not found")
)
