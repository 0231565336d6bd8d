package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/gatewarden/gatewarden/internal/audit"
	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/httpapi"
	"github.com/gatewarden/gatewarden/internal/jwt"
	"github.com/gatewarden/gatewarden/internal/mail"
	"github.com/gatewarden/gatewarden/internal/metrics"
	"github.com/gatewarden/gatewarden/internal/password"
	"github.com/gatewarden/gatewarden/internal/rate"
	"github.com/gatewarden/gatewarden/internal/store/sqlite"
	"github.com/gatewarden/gatewarden/internal/token"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
	auditBuffer     = 256
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := sqlite.New(ctx, cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer storage.Close()
	logger.Info("database ready", slog.String("path", cfg.DatabasePath))

	hasher, err := password.New(password.Config{
		Memory:      cfg.Argon2Memory,
		Time:        cfg.Argon2Time,
		Parallelism: cfg.Argon2Parallelism,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		return err
	}

	secret := []byte(cfg.Secret)
	codec := token.NewCodec(secret)
	issuer := jwt.NewIssuer(secret)

	ipLimiter, keyLimiter, limiterCleanup := buildLimiters(cfg, logger)
	defer limiterCleanup()

	var mailer mail.Mailer
	if cfg.SMTP.Configured() {
		mailer = mail.NewSMTP(mail.SMTPConfig{
			Host: cfg.SMTP.Host,
			Port: cfg.SMTP.Port,
			User: cfg.SMTP.User,
			Pass: cfg.SMTP.Pass,
			From: cfg.SMTP.From,
		})
		logger.Info("smtp transport configured", slog.String("host", cfg.SMTP.Host))
	} else {
		mailer = &mail.LogMailer{Logger: logger}
		logger.Warn("smtp not configured, mail goes to the log")
	}

	var auditSink audit.Sink
	if cfg.AuditLog {
		auditSink = audit.NewJSONWriterSink(os.Stderr)
	}
	auditor := audit.NewDispatcher(auditSink, auditBuffer, logger)
	defer auditor.Close()

	stats := metrics.New()

	if cfg.OTelMetrics {
		exporter, err := metrics.NewOTelExporter(otel.GetMeterProvider().Meter("gatewarden"), stats)
		if err != nil {
			return err
		}
		defer func() { _ = exporter.Close() }()
		logger.Info("metrics exported via opentelemetry")
	}

	svc := auth.New(storage, hasher, codec, issuer, keyLimiter, mailer, auditor, stats, logger, auth.Config{
		FrontendURL:     cfg.FrontendURL,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		RevokeOnReuse:   cfg.RevokeOnReuse,
	})

	handler := httpapi.New(logger, svc, ipLimiter, stats, httpapi.Config{
		Production:        cfg.Production,
		TrustProxyHeaders: cfg.TrustProxyHeaders,
		CookieMaxAge:      cfg.RefreshTokenTTL,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go purgeExpired(ctx, storage, logger)

	errC := make(chan error, 1)
	go func() {
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errC <- err
		}
	}()

	select {
	case err := <-errC:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildLimiters picks the limiter backend: shared Redis counters when
// an address is configured, per-process memory otherwise.
func buildLimiters(cfg *config.Config, logger *slog.Logger) (ipLimiter, keyLimiter rate.Limiter, cleanup func()) {
	ipCfg := rate.Config{Calls: cfg.IPRateCalls, Per: cfg.IPRatePer}
	keyCfg := rate.Config{Calls: cfg.KeyRateCalls, Per: cfg.KeyRatePer}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		logger.Info("rate limiting via redis",
			slog.String("addr", cfg.RedisAddr),
			slog.Bool("fail_open", cfg.RateLimitFailOpen),
		)
		return rate.NewRedisLimiter(client, ipCfg, "rl:ip", cfg.RateLimitFailOpen, logger),
			rate.NewRedisLimiter(client, keyCfg, "rl:key", cfg.RateLimitFailOpen, logger),
			func() { _ = client.Close() }
	}

	ipMem := rate.NewMemoryLimiter(ipCfg)
	keyMem := rate.NewMemoryLimiter(keyCfg)
	return ipMem, keyMem, func() {
		ipMem.Stop()
		keyMem.Stop()
	}
}

// purgeExpired deletes long-expired token rows on a timer. Expiry is
// enforced at read time; this only keeps the tables from growing
// without bound.
func purgeExpired(ctx context.Context, storage *sqlite.Storage, logger *slog.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := storage.DeleteExpiredTokens(ctx, time.Now().UTC())
			if err != nil {
				logger.Error("purge expired tokens", slog.Any("error", err))
				continue
			}
			if n > 0 {
				logger.Info("purged expired tokens", slog.Int("count", n))
			}
		case <-ctx.Done():
			return
		}
	}
}
