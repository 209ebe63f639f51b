package models

import (
	"time"

	"petidentity/pkg/email"
)

// Key identifies a lockout bucket: one per normalized email and client IP.
type Key struct {
	Email string
	IP    string
}

func NewKey(address, ip string) Key {
	return Key{Email: email.Normalize(address), IP: ip}
}

func (k Key) String() string {
	return "login:" + k.Email + ":" + k.IP
}

// Lockout tracks failed sign-in attempts for one key.
type Lockout struct {
	FailureCount  int        `json:"failure_count"`
	LastFailureAt time.Time  `json:"last_failure_at"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
}

// IsLockedAt reports whether the key is hard-locked at now.
func (l *Lockout) IsLockedAt(now time.Time) bool {
	return l.LockedUntil != nil && now.Before(*l.LockedUntil)
}

// ShouldLock reports whether the failure count has reached threshold.
func (l *Lockout) ShouldLock(threshold int) bool {
	return threshold > 0 && l.FailureCount >= threshold
}

// ApplyLock locks the key for d starting at now.
func (l *Lockout) ApplyLock(d time.Duration, now time.Time) {
	until := now.Add(d)
	l.LockedUntil = &until
}

// RetryAfter is the remaining lock time at now, never negative.
func (l *Lockout) RetryAfter(now time.Time) time.Duration {
	if l.LockedUntil == nil {
		return 0
	}
	return max(l.LockedUntil.Sub(now), 0)
}
