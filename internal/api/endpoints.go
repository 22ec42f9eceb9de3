package api

// Route prefixes
const (
	Prefix        = "/api"
	AuthPrefix    = "/auth"
	WalletsPrefix = "/wallets"
)

// Health endpoint
const Health = "/health"

// Authentication endpoints, relative to AuthPrefix
const (
	AuthRegisterInit   = "/register-init"
	AuthRegister       = "/register"
	AuthVerifyEmailOTP = "/verify-email-otp"
	AuthLogin          = "/login"
	AuthForgotPassword = "/forgot-password"
	AuthResetPassword  = "/reset-password"
)

// Wallet endpoints, relative to WalletsPrefix
const (
	WalletCollection = ""
	WalletItem       = "/{id}"
	WalletSetDefault = "/{id}/set-default"
)

// PublicEndpoints defines endpoints that don't require authentication
var PublicEndpoints = map[string]bool{
	Prefix + Health: true,

	Prefix + AuthPrefix + AuthRegisterInit:   true,
	Prefix + AuthPrefix + AuthRegister:       true,
	Prefix + AuthPrefix + AuthVerifyEmailOTP: true,
	Prefix + AuthPrefix + AuthLogin:          true,
	Prefix + AuthPrefix + AuthForgotPassword: true,
	Prefix + AuthPrefix + AuthResetPassword:  true,
}

// IsPublic reports whether path may be served without a bearer token.
func IsPublic(path string) bool {
	return PublicEndpoints[path]
}
