package metrics

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type counterDef struct {
	id   ID
	name string
	help string
}

var counterDefs = []counterDef{
	{SignupSuccess, "gatewarden_signup_success_total", "Accounts created."},
	{SignupDuplicate, "gatewarden_signup_duplicate_total", "Signups rejected for an already-registered email."},
	{SigninSuccess, "gatewarden_signin_success_total", "Successful credential signins."},
	{SigninFailure, "gatewarden_signin_failure_total", "Rejected credential signins."},
	{RefreshSuccess, "gatewarden_refresh_success_total", "Refresh-token rotations completed."},
	{RefreshFailure, "gatewarden_refresh_failure_total", "Refresh attempts with an unknown or expired token."},
	{RefreshReuseDetected, "gatewarden_refresh_reuse_total", "Refresh attempts presenting an already-rotated token."},
	{RateLimitReject, "gatewarden_rate_limit_reject_total", "Requests rejected by a rate limiter."},
	{SessionRevoked, "gatewarden_session_revoked_total", "Single sessions revoked."},
	{SessionsRevokedAll, "gatewarden_sessions_revoked_all_total", "Revoke-all operations performed."},
	{PasswordResetRequest, "gatewarden_password_reset_request_total", "Password reset links issued."},
	{PasswordResetSuccess, "gatewarden_password_reset_success_total", "Passwords changed through a reset token."},
	{EmailVerified, "gatewarden_email_verified_total", "Email addresses verified."},
	{TrialIssued, "gatewarden_trial_issued_total", "Trial access tokens issued."},
}

type observedCounter struct {
	id         ID
	instrument metric.Int64ObservableCounter
}

// OTelExporter bridges the atomic counters into an OpenTelemetry meter
// through a registered callback. Observation pulls a snapshot, so the
// exporter never touches the counters' write path.
type OTelExporter struct {
	source       *Metrics
	registration metric.Registration
	counters     []observedCounter
}

// NewOTelExporter registers one observable counter per metric slot.
func NewOTelExporter(meter metric.Meter, source *Metrics) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	exporter := &OTelExporter{
		source:   source,
		counters: make([]observedCounter, 0, len(counterDefs)),
	}

	observables := make([]metric.Observable, 0, len(counterDefs))
	for _, def := range counterDefs {
		ins, err := meter.Int64ObservableCounter(def.name, metric.WithDescription(def.help))
		if err != nil {
			return nil, fmt.Errorf("create observable counter %s: %w", def.name, err)
		}
		exporter.counters = append(exporter.counters, observedCounter{id: def.id, instrument: ins})
		observables = append(observables, ins)
	}

	registration, err := meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := exporter.source.Snapshot()
		for _, c := range exporter.counters {
			observer.ObserveInt64(c.instrument, int64(snapshot[c.id]))
		}
		return nil
	}, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}

	exporter.registration = registration
	return exporter, nil
}

// Close unregisters the observation callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
