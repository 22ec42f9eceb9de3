package auth

import (
	"fmt"
	"net/http"
)

// Kind classifies a failed auth operation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindInvalidOrExpired
	KindRateLimited
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindInvalidOrExpired:
		return "INVALID_OR_EXPIRED"
	case KindRateLimited:
		return "RATE_LIMITED"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL"
	}
}

func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindInvalidOrExpired:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// User-visible messages. Wrong, expired and missing codes deliberately share
// MsgInvalidOrExpiredOTP, and unknown email and wrong password share
// MsgInvalidCredentials.
const (
	MsgEmailInUse          = "Email already in use"
	MsgVerificationSent    = "Verification code sent to your email"
	MsgVerificationPending = "A verification code was already sent. Please wait before requesting a new one"
	MsgSendFailed          = "Failed to send verification email"
	MsgInvalidOrExpiredOTP = "Invalid or expired OTP"
	MsgTooManyAttempts     = "Too many attempts. Please request a new OTP"
	MsgAccountNotFound     = "Account not found"
	MsgInvalidCredentials  = "Invalid email or password"
	MsgEmailNotVerified    = "Email not verified"
	MsgForgotPassword      = "If this email exists, an OTP was sent."
	MsgPasswordReset       = "Password has been reset. Please log in again"
)

// Error is the failure half of every Service result.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}
