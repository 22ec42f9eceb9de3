package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/api"
)

const (
	MsgMissingToken = "Missing token"
	MsgInvalidToken = "Invalid/expired token"
)

// Define a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key used to store the caller identity in the context
	UserContextKey contextKey = "user"
)

// Identity is the authenticated caller of a protected request.
type Identity struct {
	UserID string
	Email  string
}

type AuthMiddleware struct {
	tokens *TokenIssuer
	log    *zap.Logger
}

func NewAuthMiddleware(tokens *TokenIssuer, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens: tokens,
		log:    log,
	}
}

// Authenticate rejects requests without a valid bearer token and stores the
// caller identity on the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.IsPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			api.WriteMessage(w, http.StatusUnauthorized, MsgMissingToken)
			return
		}

		claims, err := m.tokens.Verify(token)
		if err != nil {
			m.log.Debug("rejected bearer token", zap.Error(err))
			api.WriteMessage(w, http.StatusUnauthorized, MsgInvalidToken)
			return
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: claims.UserID, Email: claims.Email})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, UserContextKey, id)
}

// Helper function to get the caller identity from context
func GetUserFromContext(ctx context.Context) (Identity, error) {
	id, ok := ctx.Value(UserContextKey).(Identity)
	if !ok || id.UserID == "" {
		return Identity{}, errors.New("user not found in context")
	}
	return id, nil
}

func bearerToken(header string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(header, bearer) {
		return "", false
	}
	token := strings.TrimSpace(header[len(bearer):])
	return token, token != ""
}
