// Package httpapi exposes the auth flows over HTTP. It owns transport
// concerns only: routing, JSON bodies, cookies, CSRF, admission, and
// the mapping from flow errors to status codes.
package httpapi

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/rate"
)

// Cookie and header names of the session contract.
const (
	refreshCookie = "refresh_token"
	csrfCookie    = "csrf_token"
	csrfHeader    = "x-csrf"
)

// Config tunes the handler.
type Config struct {
	// Production switches the Secure attribute on session cookies.
	Production bool

	// TrustProxyHeaders keys per-IP admission on X-Forwarded-For.
	// Leave off unless a proxy in front overwrites the header; a
	// directly exposed server must not let clients pick their own
	// limiter key.
	TrustProxyHeaders bool

	// CookieMaxAge bounds both session cookies. Defaults to the
	// refresh-token lifetime.
	CookieMaxAge time.Duration
}

// Handler serves the auth API.
type Handler struct {
	logger    *slog.Logger
	svc       *auth.Service
	ipLimiter rate.Limiter
	stats     *metrics.Metrics
	cfg       Config
}

// New returns a Handler. ipLimiter guards the public endpoints and may
// be nil to disable admission; stats may be nil.
func New(logger *slog.Logger, svc *auth.Service, ipLimiter rate.Limiter, stats *metrics.Metrics, cfg Config) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CookieMaxAge <= 0 {
		cfg.CookieMaxAge = auth.DefaultRefreshTokenTTL
	}
	return &Handler{
		logger:    logger,
		svc:       svc,
		ipLimiter: ipLimiter,
		stats:     stats,
		cfg:       cfg,
	}
}

// Router builds the route table and wraps it with the middleware
// stack.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/signup", h.signup)
	mux.HandleFunc("POST /api/auth/signin", h.signin)
	mux.HandleFunc("POST /api/auth/refresh", h.refresh)
	mux.HandleFunc("POST /api/auth/logout", h.logout)
	mux.HandleFunc("POST /api/auth/verify-email", h.verifyEmail)
	mux.HandleFunc("POST /api/auth/forgot-password", h.forgotPassword)
	mux.HandleFunc("POST /api/auth/reset-password", h.resetPassword)
	mux.HandleFunc("GET /api/auth/sessions", h.requireAuth(h.listSessions))
	mux.HandleFunc("POST /api/auth/sessions/revoke", h.requireAuth(h.revokeSession))
	mux.HandleFunc("POST /api/auth/sessions/revoke-all", h.requireAuth(h.revokeAllSessions))
	mux.HandleFunc("POST /api/auth/trial", h.trial)
	mux.HandleFunc("GET /healthz", h.health)

	var handler http.Handler = mux
	handler = securityHeaders(handler)
	handler = requestLogging(h.logger, handler)
	handler = recovery(h.logger, handler)
	return handler
}

// admitIP charges the request against the per-IP budget. Writes the
// 429 itself when the budget is gone.
func (h *Handler) admitIP(w http.ResponseWriter, r *http.Request) bool {
	if h.ipLimiter == nil {
		return true
	}
	if h.ipLimiter.Allow(r.Context(), h.clientIP(r)) {
		return true
	}
	h.stats.Inc(metrics.RateLimitReject)
	h.sendDetail(w, "Too many requests", http.StatusTooManyRequests)
	return false
}

// clientIP is the connection address, or the first X-Forwarded-For hop
// when proxy headers are trusted.
func (h *Handler) clientIP(r *http.Request) string {
	if h.cfg.TrustProxyHeaders {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
