// Package metrics keeps hot-path counters as plain atomics. The flows
// increment them unconditionally; exporting happens pull-style through
// a snapshot, so no request ever waits on a metrics backend.
package metrics

import "sync/atomic"

// ID selects a counter slot.
type ID uint16

const (
	SignupSuccess ID = iota
	SignupDuplicate
	SigninSuccess
	SigninFailure
	RefreshSuccess
	RefreshFailure
	RefreshReuseDetected
	RateLimitReject
	SessionRevoked
	SessionsRevokedAll
	PasswordResetRequest
	PasswordResetSuccess
	EmailVerified
	TrialIssued
	idCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed array of padded counters. A nil *Metrics is valid
// and counts nothing.
type Metrics struct {
	counters [idCount]paddedCounter
}

func New() *Metrics {
	return &Metrics{}
}

// Inc adds one to the counter. Out-of-range IDs are ignored.
func (m *Metrics) Inc(id ID) {
	if m == nil || id >= idCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id ID) uint64 {
	if m == nil || id >= idCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter at one point in time. Slots are read
// individually, so the snapshot is per-counter consistent, not global.
func (m *Metrics) Snapshot() map[ID]uint64 {
	s := make(map[ID]uint64, int(idCount))
	if m == nil {
		return s
	}
	for id := ID(0); id < idCount; id++ {
		s[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
