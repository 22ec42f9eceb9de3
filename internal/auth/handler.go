package auth

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/api"
)

type Handler struct {
	service *Service
	log     *zap.Logger
}

func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Register mounts the auth routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc(api.AuthRegisterInit, h.RegisterInit).Methods(http.MethodPost)
	r.HandleFunc(api.AuthRegister, h.LegacyRegister).Methods(http.MethodPost)
	r.HandleFunc(api.AuthVerifyEmailOTP, h.VerifyEmailOTP).Methods(http.MethodPost)
	r.HandleFunc(api.AuthLogin, h.Login).Methods(http.MethodPost)
	r.HandleFunc(api.AuthForgotPassword, h.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc(api.AuthResetPassword, h.ResetPassword).Methods(http.MethodPost)
}

func (h *Handler) RegisterInit(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, minRegisterPassword, http.StatusOK)
}

// LegacyRegister keeps the pre-OTP route working for older clients.
func (h *Handler) LegacyRegister(w http.ResponseWriter, r *http.Request) {
	h.register(w, r, minLegacyPassword, http.StatusCreated)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request, minPassword, status int) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}
	if is := validateRegisterRequest(&req, minPassword); len(is) > 0 {
		h.reject(w, r, is)
		return
	}

	h.log.Info("handling register request", zap.String("email", NormalizeEmail(req.Email)))

	result, err := h.service.RegisterInit(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, status, result)
}

func (h *Handler) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailOTPRequest
	if !h.decode(w, r, &req) {
		return
	}
	if is := validateVerifyEmailOTPRequest(&req); len(is) > 0 {
		h.reject(w, r, is)
		return
	}

	session, err := h.service.VerifyEmailOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if is := validateLoginRequest(&req); len(is) > 0 {
		h.reject(w, r, is)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, session)
}

func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if is := validateForgotPasswordRequest(&req); len(is) > 0 {
		h.reject(w, r, is)
		return
	}

	message, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteMessage(w, http.StatusOK, message)
}

func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if is := validateResetPasswordRequest(&req); len(is) > 0 {
		h.reject(w, r, is)
		return
	}

	message, err := h.service.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteMessage(w, http.StatusOK, message)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := api.DecodeJSON(r, dst); err != nil {
		h.log.Warn("malformed request body", zap.String("path", r.URL.Path))
		api.WriteMessage(w, http.StatusBadRequest, api.MsgInvalidData)
		return false
	}
	return true
}

func (h *Handler) reject(w http.ResponseWriter, r *http.Request, is []api.Issue) {
	h.log.Warn("invalid request",
		zap.String("path", r.URL.Path),
		zap.Any("issues", is))
	api.WriteValidationError(w, is)
}

// fail writes a Service error. Anything that is not an *Error is internal
// and its detail stays in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *Error
	if errors.As(err, &authErr) {
		status := authErr.Kind.HTTPStatus()
		if status >= http.StatusInternalServerError {
			h.log.Error("request failed",
				zap.String("path", r.URL.Path),
				zap.Stringer("kind", authErr.Kind),
				zap.String("message", authErr.Message))
		}
		api.WriteMessage(w, status, authErr.Message)
		return
	}

	h.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	api.WriteInternalError(w)
}
