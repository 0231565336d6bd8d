// Package config loads the service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the full runtime configuration. Every field has a usable
// default except Secret, which must be provided.
type Config struct {
	Addr         string `env:"GATEWARDEN_ADDR" envDefault:":8080"`
	DatabasePath string `env:"GATEWARDEN_DATABASE_PATH" envDefault:"gatewarden.db"`

	// Secret signs access tokens and keys the token fingerprints.
	Secret string `env:"GATEWARDEN_SECRET"`

	// FrontendURL prefixes the links sent in verification and reset
	// mails.
	FrontendURL string `env:"GATEWARDEN_FRONTEND_URL" envDefault:"http://localhost:3000"`

	// RedisAddr, when set, backs the rate limiters with a shared Redis
	// instead of per-process memory.
	RedisAddr string `env:"GATEWARDEN_REDIS_ADDR"`

	// RateLimitFailOpen controls the Redis limiter policy on backend
	// errors: allow (true) or reject (false).
	RateLimitFailOpen bool `env:"GATEWARDEN_RATE_LIMIT_FAIL_OPEN" envDefault:"true"`

	// Production switches the Secure attribute on the session cookies.
	Production bool `env:"GATEWARDEN_PRODUCTION" envDefault:"false"`

	// TrustProxyHeaders keys rate limiting on X-Forwarded-For instead
	// of the socket peer. Enable only behind a proxy that overwrites
	// the header; exposed directly, the header is client-controlled.
	TrustProxyHeaders bool `env:"GATEWARDEN_TRUST_PROXY_HEADERS" envDefault:"false"`

	// OTelMetrics registers the service counters on the global
	// OpenTelemetry meter provider.
	OTelMetrics bool `env:"GATEWARDEN_OTEL_METRICS" envDefault:"false"`

	// RevokeOnReuse escalates refresh-token reuse to a full session
	// wipe for the affected user.
	RevokeOnReuse bool `env:"GATEWARDEN_REVOKE_ON_REUSE" envDefault:"false"`

	AccessTokenTTL  time.Duration `env:"GATEWARDEN_ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"GATEWARDEN_REFRESH_TOKEN_TTL" envDefault:"336h"`

	// Argon2id work factors.
	Argon2Memory      uint32 `env:"GATEWARDEN_ARGON2_MEMORY_KB" envDefault:"65536"`
	Argon2Time        uint32 `env:"GATEWARDEN_ARGON2_TIME" envDefault:"3"`
	Argon2Parallelism uint8  `env:"GATEWARDEN_ARGON2_PARALLELISM" envDefault:"2"`

	// Admission ceilings per trailing window.
	IPRateCalls  int           `env:"GATEWARDEN_IP_RATE_CALLS" envDefault:"100"`
	IPRatePer    time.Duration `env:"GATEWARDEN_IP_RATE_PER" envDefault:"60s"`
	KeyRateCalls int           `env:"GATEWARDEN_KEY_RATE_CALLS" envDefault:"10"`
	KeyRatePer   time.Duration `env:"GATEWARDEN_KEY_RATE_PER" envDefault:"60s"`

	// AuditLog enables the JSON audit stream on stderr.
	AuditLog bool `env:"GATEWARDEN_AUDIT_LOG" envDefault:"true"`

	SMTP SMTPConfig
}

// SMTPConfig is the outbound mail transport. Incomplete settings make
// the service log mails instead of sending them.
type SMTPConfig struct {
	Host string `env:"SMTP_HOST"`
	Port int    `env:"SMTP_PORT" envDefault:"587"`
	User string `env:"SMTP_USER"`
	Pass string `env:"SMTP_PASS"`
	From string `env:"SMTP_FROM" envDefault:"noreply@localhost"`
}

// Configured reports whether the transport settings are complete.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.User != "" && c.Pass != ""
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Secret == "" {
		return nil, errors.New("GATEWARDEN_SECRET must be set")
	}
	if len(cfg.Secret) < 32 {
		return nil, errors.New("GATEWARDEN_SECRET must be at least 32 bytes")
	}

	return cfg, nil
}
