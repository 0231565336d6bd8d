// Package auth orchestrates the authentication flows: signup and email
// verification, signin, refresh rotation, logout, password reset,
// session management, and trial access. Flows own the error taxonomy
// and the token lifetimes; transport concerns (cookies, CSRF, status
// codes) stay in the HTTP layer.
package auth

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/jwt"
	"github.com/gatewarden/gatewarden/internal/mail"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/password"
	"github.com/gatewarden/gatewarden/internal/rate"
	"github.com/gatewarden/gatewarden/internal/store"
	"github.com/gatewarden/gatewarden/internal/token"
)

// Token lifetimes. Applied as defaults when Config leaves them zero.
const (
	DefaultAccessTokenTTL   = 15 * time.Minute
	DefaultRefreshTokenTTL  = 14 * 24 * time.Hour
	DefaultVerificationTTL  = 30 * time.Minute
	DefaultPasswordResetTTL = time.Hour
	DefaultTrialTTL         = 24 * time.Hour
)

// Config tunes the flows.
type Config struct {
	// FrontendURL prefixes the links placed in verification and reset
	// mails.
	FrontendURL string

	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	VerificationTTL  time.Duration
	PasswordResetTTL time.Duration
	TrialTTL         time.Duration

	// RevokeOnReuse additionally revokes every session of a user when a
	// rotated-out refresh token is presented again. Off by default: the
	// reuse is always rejected and audited either way.
	RevokeOnReuse bool
}

func (c Config) withDefaults() Config {
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.VerificationTTL <= 0 {
		c.VerificationTTL = DefaultVerificationTTL
	}
	if c.PasswordResetTTL <= 0 {
		c.PasswordResetTTL = DefaultPasswordResetTTL
	}
	if c.TrialTTL <= 0 {
		c.TrialTTL = DefaultTrialTTL
	}
	return c
}

// Session is the result of a successful signin or refresh. RefreshToken
// and CSRFToken are the plaintext secrets destined for cookies; only
// the refresh token's fingerprint was persisted.
type Session struct {
	User         *store.User
	AccessToken  string
	RefreshToken string
	CSRFToken    string
}

// Service wires the flows to their dependencies. All fields are set at
// construction; Service is safe for concurrent use.
type Service struct {
	store      store.Store
	hasher     *password.Hasher
	codec      *token.Codec
	issuer     *jwt.Issuer
	keyLimiter rate.Limiter
	mailer     mail.Mailer
	auditor    *audit.Dispatcher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	cfg        Config

	now func() time.Time
}

// New returns a ready Service. auditor and stats may be nil; keyLimiter
// guards forgot-password per target email and may be nil to disable.
func New(
	st store.Store,
	hasher *password.Hasher,
	codec *token.Codec,
	issuer *jwt.Issuer,
	keyLimiter rate.Limiter,
	mailer mail.Mailer,
	auditor *audit.Dispatcher,
	stats *metrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      st,
		hasher:     hasher,
		codec:      codec,
		issuer:     issuer,
		keyLimiter: keyLimiter,
		mailer:     mailer,
		auditor:    auditor,
		metrics:    stats,
		logger:     logger,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

func (s *Service) emit(event audit.Event) {
	event.Timestamp = s.now().UTC()
	s.auditor.Emit(event)
}

// newOpaqueToken generates a fresh secret and its stored fingerprint.
func (s *Service) newOpaqueToken() (plaintext, fingerprint string, err error) {
	plaintext, err = s.codec.Generate(token.DefaultLength)
	if err != nil {
		return "", "", err
	}
	return plaintext, s.codec.Fingerprint(plaintext), nil
}

func newID() string {
	return uuid.New().String()
}
