// Package response writes JSON error bodies for plain net/http handlers and
// middleware that run outside the huma API layer.
package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

// ErrorBody is the wire shape of an error. It matches the body huma writes
// for API errors so clients see one format.
type ErrorBody struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// Error writes an error body for code with the code's HTTP status.
func Error(w http.ResponseWriter, code domainerrors.Code, message string, logger *slog.Logger) {
	status := code.HTTPStatus()
	JSON(w, status, ErrorBody{Status: status, Code: string(code), Message: message}, logger)
}

// NotFound writes a 404 for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	Error(w, domainerrors.CodeNotFound, "no route for "+r.Method+" "+r.URL.Path, logger)
}

// MethodNotAllowed writes a 405 for known paths hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusMethodNotAllowed)
	body := ErrorBody{
		Status:  http.StatusMethodNotAllowed,
		Code:    "METHOD_NOT_ALLOWED",
		Message: "method " + r.Method + " not allowed",
	}
	if err := json.NewEncoder(w).Encode(body); err != nil && logger != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

// TooManyRequests writes a 429 with a Retry-After hint.
func TooManyRequests(w http.ResponseWriter, retryAfter time.Duration, logger *slog.Logger) {
	secs := int(retryAfter.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(secs))
	Error(w, domainerrors.CodeRateLimited, "too many export requests, try again later", logger)
}
