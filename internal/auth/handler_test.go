package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/api"
)

func newTestHandler(t *testing.T) (*testEnv, http.Handler) {
	t.Helper()
	env := newTestEnv(t)

	r := mux.NewRouter()
	NewHandler(env.svc, zap.NewNop()).Register(r.PathPrefix(api.Prefix + api.AuthPrefix).Subrouter())
	return env, r
}

func doJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_RegisterInit(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "success",
			path:       "/api/auth/register-init",
			body:       `{"name":"Alice","email":"A@x.com","password":"secret123"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"email":"a@x.com","message":"Verification code sent to your email"}`,
		},
		{
			name:       "legacy route answers created",
			path:       "/api/auth/register",
			body:       `{"name":"Alice","email":"a@x.com","password":"secret"}`,
			wantStatus: http.StatusCreated,
			wantBody:   `{"email":"a@x.com","message":"Verification code sent to your email"}`,
		},
		{
			name:       "malformed json",
			path:       "/api/auth/register-init",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Invalid data"}`,
		},
		{
			name:       "validation issues",
			path:       "/api/auth/register-init",
			body:       `{"name":"Alice","email":"not-an-email","password":"secret123"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"Invalid data","issues":[{"path":"email","message":"Invalid email"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, h := newTestHandler(t)
			rec := doJSON(t, h, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestHandler_RegisterInitConflict(t *testing.T) {
	env, h := newTestHandler(t)
	env.registerVerified(t, "Alice", "a@x.com", "secret123")

	rec := doJSON(t, h, "/api/auth/register-init", `{"name":"Alice","email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"Email already in use"}`, rec.Body.String())
}

func TestHandler_SendFailureIsInternal(t *testing.T) {
	env, h := newTestHandler(t)
	env.sender.err = errors.New("smtp down")

	rec := doJSON(t, h, "/api/auth/register-init", `{"name":"Alice","email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"message":"Failed to send verification email"}`, rec.Body.String())
}

func TestHandler_VerifyAndLogin(t *testing.T) {
	env, h := newTestHandler(t)

	rec := doJSON(t, h, "/api/auth/register-init", `{"name":"Alice","email":"a@x.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, "/api/auth/login", `{"email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"message":"Email not verified"}`, rec.Body.String())

	rec = doJSON(t, h, "/api/auth/verify-email-otp", `{"email":"a@x.com","otp":"12345"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid data","issues":[{"path":"otp","message":"OTP must be 6 digits"}]}`, rec.Body.String())

	code := env.sender.last(t).code
	rec = doJSON(t, h, "/api/auth/verify-email-otp", `{"email":"a@x.com","otp":"`+wrongCode(code)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid or expired OTP"}`, rec.Body.String())

	rec = doJSON(t, h, "/api/auth/verify-email-otp", `{"email":"a@x.com","otp":"`+code+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var session struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	assert.NotEmpty(t, session.Token)
	assert.NotEmpty(t, session.User.ID)
	assert.Equal(t, "Alice", session.User.Name)
	assert.Equal(t, "a@x.com", session.User.Email)

	rec = doJSON(t, h, "/api/auth/login", `{"email":"a@x.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	wrongPassword := rec.Body.String()

	rec = doJSON(t, h, "/api/auth/login", `{"email":"ghost@x.com","password":"wrong-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, wrongPassword, rec.Body.String())

	rec = doJSON(t, h, "/api/auth/login", `{"email":"a@x.com","password":"secret123"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_ForgotPasswordBodiesIdentical(t *testing.T) {
	env, h := newTestHandler(t)
	env.registerVerified(t, "Alice", "a@x.com", "secret123")

	known := doJSON(t, h, "/api/auth/forgot-password", `{"email":"a@x.com"}`)
	unknown := doJSON(t, h, "/api/auth/forgot-password", `{"email":"ghost@x.com"}`)
	env.svc.Wait()

	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, known.Code, unknown.Code)
	assert.Equal(t, known.Body.Bytes(), unknown.Body.Bytes())
	assert.JSONEq(t, `{"message":"If this email exists, an OTP was sent."}`, known.Body.String())
}

func TestHandler_ResetPassword(t *testing.T) {
	env, h := newTestHandler(t)
	env.registerVerified(t, "Alice", "a@x.com", "secret123")

	rec := doJSON(t, h, "/api/auth/forgot-password", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	env.svc.Wait()
	code := env.sender.last(t).code

	rec = doJSON(t, h, "/api/auth/reset-password", `{"email":"a@x.com","otp":"`+code+`","newPassword":"brand-new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Password has been reset. Please log in again"}`, rec.Body.String())

	rec = doJSON(t, h, "/api/auth/reset-password", `{"email":"a@x.com","otp":"`+code+`","newPassword":"brand-new"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid or expired OTP"}`, rec.Body.String())

	rec = doJSON(t, h, "/api/auth/login", `{"email":"a@x.com","password":"brand-new"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	_, h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/login", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
