package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/store"
)

// requireAuth is the bearer gate in front of the session endpoints.
func (h *Handler) requireAuth(next func(http.ResponseWriter, *http.Request, *store.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			h.sendDetail(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, _, err := h.svc.Authenticate(r.Context(), tokenStr)
		if err != nil {
			h.sendFlowError(w, err)
			return
		}

		next(w, r, user)
	}
}

type sessionInfo struct {
	ID         string    `json:"id"`
	DeviceInfo string    `json:"device_info,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	Revoked    bool      `json:"revoked"`
	CreatedAt  time.Time `json:"created_at"`
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request, user *store.User) {
	sessions, err := h.svc.Sessions(r.Context(), user.ID)
	if err != nil {
		h.sendFlowError(w, err)
		return
	}

	out := make([]sessionInfo, 0, len(sessions))
	for _, row := range sessions {
		out = append(out, sessionInfo{
			ID:         row.ID,
			DeviceInfo: row.DeviceInfo,
			ExpiresAt:  row.ExpiresAt,
			Revoked:    row.Revoked,
			CreatedAt:  row.CreatedAt,
		})
	}

	h.sendJSON(w, out, http.StatusOK)
}

type revokeSessionRequest struct {
	SessionID string `json:"session_id"`
}

func (h *Handler) revokeSession(w http.ResponseWriter, r *http.Request, user *store.User) {
	var req revokeSessionRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.RevokeSession(r.Context(), user.ID, req.SessionID); err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			h.sendDetail(w, "Session not found", http.StatusNotFound)
			return
		}
		h.sendFlowError(w, err)
		return
	}

	h.sendDetail(w, "Session revoked", http.StatusOK)
}

func (h *Handler) revokeAllSessions(w http.ResponseWriter, r *http.Request, user *store.User) {
	if _, err := h.svc.RevokeAllSessions(r.Context(), user.ID); err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.sendDetail(w, "All sessions revoked", http.StatusOK)
}

type trialRequest struct {
	Email string `json:"email"`
}

func (h *Handler) trial(w http.ResponseWriter, r *http.Request) {
	if !h.admitIP(w, r) {
		return
	}

	var req trialRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	accessToken, err := h.svc.Trial(r.Context(), req.Email, h.clientIP(r))
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) {
			h.sendDetail(w, "User not found", http.StatusNotFound)
			return
		}
		h.sendFlowError(w, err)
		return
	}

	// Trial access is deliberately bearer-only; no session cookies.
	h.sendJSON(w, tokenResponse{AccessToken: accessToken}, http.StatusOK)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	h.sendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
