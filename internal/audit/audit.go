// Package audit records security-relevant events (failed signins,
// refresh-token reuse, session revocations) through pluggable sinks.
// Emission is asynchronous so a slow sink cannot stall a request.
package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Event types emitted by the auth flows.
const (
	EventSigninFailure   = "signin_failure"
	EventSigninSuccess   = "signin_success"
	EventRefreshReuse    = "refresh_reuse"
	EventSessionRevoked  = "session_revoked"
	EventPasswordReset   = "password_reset"
	EventSignup          = "signup"
	EventEmailVerified   = "email_verified"
	EventTrialIssued     = "trial_issued"
	EventSessionsRevoked = "sessions_revoked_all"
	EventRateLimitReject = "rate_limit_reject"
)

// Event is one audit record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	UserID    string            `json:"user_id,omitempty"`
	Email     string            `json:"email,omitempty"`
	IP        string            `json:"ip,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives emitted audit events.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel. Used by
// tests and by consumers that forward events elsewhere.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{events: make(chan Event, buffer)}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{writer: w}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
