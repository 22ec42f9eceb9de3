package auth

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/elskow/fintrack/internal/api"
)

const (
	minNameLength           = 2
	minRegisterPassword     = 8
	minLegacyPassword       = 6
	minLoginPassword        = 6
	minEmailLength          = 5
	maxEmailLength          = 255
	minResetPassword        = 6
	maxResetPassword        = 72 // bcrypt ignores anything past 72 bytes
	otpFormatMessage        = "OTP must be 6 digits"
	invalidEmailMessage     = "Invalid email"
	requiredMessage         = "Required"
	tooShortMessageTemplate = "Must contain at least %d character(s)"
	tooLongMessageTemplate  = "Must contain at most %d character(s)"
)

var otpPattern = regexp.MustCompile(`^\d{6}$`)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

// issues collects field failures in request order.
type issues []api.Issue

func (is *issues) add(path, message string) {
	*is = append(*is, api.Issue{Path: path, Message: message})
}

func (is *issues) minLength(path, value string, n int) bool {
	if utf8.RuneCountInString(value) < n {
		is.add(path, fmt.Sprintf(tooShortMessageTemplate, n))
		return false
	}
	return true
}

func (is *issues) maxLength(path, value string, n int) bool {
	if utf8.RuneCountInString(value) > n {
		is.add(path, fmt.Sprintf(tooLongMessageTemplate, n))
		return false
	}
	return true
}

func (is *issues) email(path, value string) {
	if value == "" {
		is.add(path, requiredMessage)
		return
	}
	if !isValidEmail(value) {
		is.add(path, invalidEmailMessage)
	}
}

func (is *issues) boundedEmail(path, value string) {
	if value == "" {
		is.add(path, requiredMessage)
		return
	}
	if !is.minLength(path, value, minEmailLength) || !is.maxLength(path, value, maxEmailLength) {
		return
	}
	is.email(path, value)
}

func (is *issues) otp(path, value string) {
	if !otpPattern.MatchString(value) {
		is.add(path, otpFormatMessage)
	}
}

// validateRegisterRequest checks a register-init body. The legacy register
// route passes a lower password floor.
func validateRegisterRequest(req *RegisterRequest, minPassword int) []api.Issue {
	var is issues
	is.minLength("name", strings.TrimSpace(req.Name), minNameLength)
	is.email("email", strings.TrimSpace(req.Email))
	is.minLength("password", req.Password, minPassword)
	return is
}

func validateVerifyEmailOTPRequest(req *VerifyEmailOTPRequest) []api.Issue {
	var is issues
	is.email("email", strings.TrimSpace(req.Email))
	is.otp("otp", strings.TrimSpace(req.OTP))
	return is
}

func validateLoginRequest(req *LoginRequest) []api.Issue {
	var is issues
	is.email("email", strings.TrimSpace(req.Email))
	is.minLength("password", req.Password, minLoginPassword)
	return is
}

func validateForgotPasswordRequest(req *ForgotPasswordRequest) []api.Issue {
	var is issues
	is.boundedEmail("email", strings.TrimSpace(req.Email))
	return is
}

func validateResetPasswordRequest(req *ResetPasswordRequest) []api.Issue {
	var is issues
	is.boundedEmail("email", strings.TrimSpace(req.Email))
	is.otp("otp", strings.TrimSpace(req.OTP))
	if is.minLength("newPassword", req.NewPassword, minResetPassword) {
		is.maxLength("newPassword", req.NewPassword, maxResetPassword)
	}
	return is
}

// isValidEmail accepts a bare address only; display names and angle
// brackets are rejected.
func isValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Address == email && strings.Contains(email[strings.LastIndex(email, "@")+1:], ".")
}
