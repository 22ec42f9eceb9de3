package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const (
	MsgInvalidData    = "Invalid data"
	MsgInternalServer = "Internal server error"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// ErrInvalidJSON is returned by DecodeJSON for bodies that are not a single
// JSON object.
var ErrInvalidJSON = errors.New("invalid json body")

// Issue points at one invalid request field.
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type messageBody struct {
	Message string  `json:"message"`
	Issues  []Issue `json:"issues,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, messageBody{Message: message})
}

func WriteValidationError(w http.ResponseWriter, issues []Issue) {
	WriteJSON(w, http.StatusBadRequest, messageBody{Message: MsgInvalidData, Issues: issues})
}

func WriteInternalError(w http.ResponseWriter) {
	WriteMessage(w, http.StatusInternalServerError, MsgInternalServer)
}

// DecodeJSON reads a JSON object from the request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return ErrInvalidJSON
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return ErrInvalidJSON
	}
	if dec.More() {
		return ErrInvalidJSON
	}
	return nil
}

// Recover turns a panicking handler into a 500 without leaking details.
func Recover(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.Error("panic serving request",
						zap.String("method", r.Method),
						zap.String("path", r.URL.Path),
						zap.Any("panic", rec),
						zap.Stack("stack"))
					WriteInternalError(w)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			log.Debug("handled request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
