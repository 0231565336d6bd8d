package httpapi

import (
	"net/http"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	if !h.admitIP(w, r) {
		return
	}

	var req signupRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.sendDetail(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	if err := h.svc.Signup(r.Context(), req.Email, req.Password, h.clientIP(r)); err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.sendDetail(w, "Sign-up successful. Check email for verification link.", http.StatusOK)
}

type signinRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signin(w http.ResponseWriter, r *http.Request) {
	if !h.admitIP(w, r) {
		return
	}

	var req signinRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	session, err := h.svc.Signin(r.Context(), req.Email, req.Password, h.clientIP(r), r.UserAgent())
	if err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.setSessionCookies(w, session.RefreshToken, session.CSRFToken)
	h.sendJSON(w, tokenResponse{AccessToken: session.AccessToken}, http.StatusOK)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	presented := refreshCookieValue(r)
	if presented == "" {
		h.sendDetail(w, "Missing refresh token", http.StatusUnauthorized)
		return
	}

	session, err := h.svc.Refresh(r.Context(), presented, h.clientIP(r), r.UserAgent())
	if err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.setSessionCookies(w, session.RefreshToken, session.CSRFToken)
	h.sendJSON(w, tokenResponse{AccessToken: session.AccessToken}, http.StatusOK)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if !h.checkCSRF(w, r) {
		return
	}

	if err := h.svc.Logout(r.Context(), refreshCookieValue(r)); err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.clearSessionCookies(w)
	h.sendDetail(w, "Logged out", http.StatusOK)
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.VerifyEmail(r.Context(), req.Token); err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.sendDetail(w, "Email verified", http.StatusOK)
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.admitIP(w, r) {
		return
	}

	var req forgotPasswordRequest
	if !h.decodeBody(w, r, &req) {
		return
	}

	if err := h.svc.ForgotPassword(r.Context(), req.Email, h.clientIP(r)); err != nil {
		h.sendFlowError(w, err)
		return
	}

	// Identical for existing and unknown accounts.
	h.sendDetail(w, "If that email exists, a reset link was sent.", http.StatusOK)
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decodeBody(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		h.sendDetail(w, "New password is required", http.StatusBadRequest)
		return
	}

	if err := h.svc.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		h.sendFlowError(w, err)
		return
	}

	h.sendDetail(w, "Password has been reset", http.StatusOK)
}
