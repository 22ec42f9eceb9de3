package wallet

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/elskow/fintrack/internal/api"
	"github.com/elskow/fintrack/internal/auth"
)

const MsgWalletNotFound = "Wallet not found"

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

// Register mounts the wallet routes on r. r must sit behind the bearer
// middleware.
func (h *Handler) Register(r *mux.Router) {
	for _, path := range []string{api.WalletCollection, api.WalletCollection + "/"} {
		r.HandleFunc(path, h.List).Methods(http.MethodGet)
		r.HandleFunc(path, h.Create).Methods(http.MethodPost)
	}
	r.HandleFunc(api.WalletItem, h.Update).Methods(http.MethodPatch)
	r.HandleFunc(api.WalletItem, h.Delete).Methods(http.MethodDelete)
	r.HandleFunc(api.WalletSetDefault, h.SetDefault).Methods(http.MethodPost)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	wallets, err := h.service.List(r.Context(), user.UserID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, wallets)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in CreateInput
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteMessage(w, http.StatusBadRequest, api.MsgInvalidData)
		return
	}

	created, err := h.service.Create(r.Context(), user.UserID, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, created)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	var in UpdateInput
	if err := api.DecodeJSON(r, &in); err != nil {
		api.WriteMessage(w, http.StatusBadRequest, api.MsgInvalidData)
		return
	}

	updated, err := h.service.Update(r.Context(), user.UserID, mux.Vars(r)["id"], in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), user.UserID, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) SetDefault(w http.ResponseWriter, r *http.Request) {
	user, ok := h.caller(w, r)
	if !ok {
		return
	}

	if err := h.service.SetDefault(r.Context(), user.UserID, mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (auth.Identity, bool) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		api.WriteMessage(w, http.StatusUnauthorized, auth.MsgMissingToken)
		return auth.Identity{}, false
	}
	return user, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		api.WriteMessage(w, http.StatusNotFound, MsgWalletNotFound)
	case errors.As(err, &invalid):
		api.WriteValidationError(w, []api.Issue{{Path: invalid.Field, Message: invalid.Message}})
	default:
		h.log.Error("wallet request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		api.WriteInternalError(w)
	}
}
