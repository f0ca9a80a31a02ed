// Package quota tracks AI agent invocations per user per calendar day.
package quota

import (
	"sync"
	"time"
)

// DailyLimit is the number of AI requests a user gets per quota day.
const DailyLimit = 3

// usage is one user's invocation record for a single calendar day.
// A record whose date differs from today is stale and treated as absent.
type usage struct {
	count int
	date  string
}

// Limiter serializes all quota mutations behind one mutex. Staleness is
// resolved lazily on access; Sweep only reclaims memory and never changes
// the observable behavior of the other operations.
type Limiter struct {
	mu     sync.Mutex
	usages map[string]usage
	now    func() time.Time
}

func NewLimiter() *Limiter {
	return &Limiter{
		usages: make(map[string]usage),
		now:    time.Now,
	}
}

// today is the quota day: the wall clock date in UTC. A user's quota
// resets the instant this string changes, with no grace period.
func (l *Limiter) today() string {
	return l.now().UTC().Format(time.DateOnly)
}

// HasExceededLimit reports whether the user spent today's whole quota.
func (l *Limiter) HasExceededLimit(userID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.usages[userID]
	if !ok {
		return false
	}
	if record.date != l.today() {
		delete(l.usages, userID)
		return false
	}
	return record.count >= DailyLimit
}

// IncrementUsage counts one AI invocation for the user. A stale or missing
// record becomes a fresh one with count 1. There is no upper clamp; callers
// are expected to check HasExceededLimit first.
func (l *Limiter) IncrementUsage(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	record, ok := l.usages[userID]
	if !ok || record.date != today {
		l.usages[userID] = usage{count: 1, date: today}
		return
	}
	record.count++
	l.usages[userID] = record
}

// RemainingRequests returns how many AI requests the user has left today.
func (l *Limiter) RemainingRequests(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.usages[userID]
	if !ok || record.date != l.today() {
		return DailyLimit
	}
	if record.count >= DailyLimit {
		return 0
	}
	return DailyLimit - record.count
}

// ResetUserLimit deletes any record for the user. Called on room (re)join
// so the quota is per session join, not purely per calendar day.
func (l *Limiter) ResetUserLimit(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.usages, userID)
}

// Sweep discards stale-dated records to bound memory. Pure reclamation:
// every operation above already treats staleness as absence.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	today := l.today()
	removed := 0
	for userID, record := range l.usages {
		if record.date != today {
			delete(l.usages, userID)
			removed++
		}
	}
	return removed
}
