package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gatewarden/gatewarden/internal/auth"
)

type detailResponse struct {
	Detail string `json:"detail"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (h *Handler) sendJSON(w http.ResponseWriter, body any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func (h *Handler) sendDetail(w http.ResponseWriter, detail string, status int) {
	h.sendJSON(w, detailResponse{Detail: detail}, status)
}

// sendFlowError maps a flow error to its status code and message. Every
// sentinel maps to exactly one pair; anything else is a 500 with a
// generic body and a logged cause.
func (h *Handler) sendFlowError(w http.ResponseWriter, err error) {
	status, detail := flowErrorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", slog.Any("error", err))
	}
	h.sendDetail(w, detail, status)
}

func flowErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, auth.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return http.StatusBadRequest, "Invalid credentials"
	case errors.Is(err, auth.ErrSuspended):
		return http.StatusForbidden, "Account suspended"
	case errors.Is(err, auth.ErrEmailNotVerified):
		return http.StatusForbidden, "Email not verified"
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "Invalid refresh token"
	case errors.Is(err, auth.ErrInvalidOrExpiredToken):
		return http.StatusBadRequest, "Invalid or expired token"
	case errors.Is(err, auth.ErrAlreadyVerified):
		return http.StatusBadRequest, "Email already verified"
	case errors.Is(err, auth.ErrTrialExpired):
		return http.StatusForbidden, "Trial expired; please verify your email"
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized, "Invalid token"
	case errors.Is(err, auth.ErrNotFound):
		return http.StatusNotFound, "Not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeBody parses a JSON request body into dst. Writes the 400
// itself on failure.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.sendDetail(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}
