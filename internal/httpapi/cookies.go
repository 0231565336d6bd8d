package httpapi

import "net/http"

// setSessionCookies installs the refresh/CSRF cookie pair. The refresh
// cookie is http-only; the CSRF companion must stay readable so the
// frontend can echo it in the x-csrf header.
func (h *Handler) setSessionCookies(w http.ResponseWriter, refreshToken, csrfToken string) {
	maxAge := int(h.cfg.CookieMaxAge.Seconds())

	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookie,
		Value:    csrfToken,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: false,
		Secure:   h.cfg.Production,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookies expires both cookies.
func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	for _, name := range []string{refreshCookie, csrfCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: name == refreshCookie,
			Secure:   h.cfg.Production,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// checkCSRF enforces the double-submit contract: the x-csrf header must
// equal the csrf_token cookie and both must be present. Writes the 403
// itself on failure.
func (h *Handler) checkCSRF(w http.ResponseWriter, r *http.Request) bool {
	header := r.Header.Get(csrfHeader)
	cookie, err := r.Cookie(csrfCookie)
	if header == "" || err != nil || cookie.Value == "" || header != cookie.Value {
		h.sendDetail(w, "CSRF token missing or invalid", http.StatusForbidden)
		return false
	}
	return true
}

// refreshCookieValue returns the refresh token cookie, or "" when
// absent.
func refreshCookieValue(r *http.Request) string {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}
