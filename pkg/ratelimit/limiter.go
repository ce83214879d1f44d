// Package ratelimit gates outbound LLM calls behind a sliding-window
// requests-per-minute limit plus a daily-count cap.
//
// Simplified from a multi-scope, pluggable-Store rate
// limiter design: this process has exactly
// one scope (LLM calls) and one in-memory store, so the Config/Store
// split collapses into a single mutex-guarded Limiter.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRPM is the free-tier requests-per-minute default.
	DefaultRPM = 10
	// DefaultDailyCap is the free-tier requests-per-day default.
	DefaultDailyCap = 250

	pollInterval = 100 * time.Millisecond
)

// nowFunc is overridable in tests.
type nowFunc func() time.Time

// Limiter enforces a sliding 60s-window RPM cap and a calendar-day
// request cap. Acquire blocks until the caller may proceed; there is no
// corresponding Release — capacity is consumed at acquire time, not on
// completion.
type Limiter struct {
	rpm      int
	dailyCap int

	mu         sync.Mutex
	calls      []time.Time // monotonically timestamped deque, oldest first
	dailyCount int
	dailyDate  string // calendar day key (process clock), e.g. "2026-07-29"

	now nowFunc
	log *slog.Logger
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithRPM overrides the requests-per-minute cap.
func WithRPM(rpm int) Option {
	return func(l *Limiter) { l.rpm = rpm }
}

// WithDailyCap overrides the requests-per-day cap.
func WithDailyCap(dailyCap int) Option {
	return func(l *Limiter) { l.dailyCap = dailyCap }
}

// WithLogger injects a logger; defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Limiter) { l.log = logger }
}

// withNow is test-only: pins the limiter's clock.
func withNow(fn nowFunc) Option {
	return func(l *Limiter) { l.now = fn }
}

// New builds a Limiter with the given options, defaulting to 10 RPM /
// 250 per day.
func New(opts ...Option) *Limiter {
	l := &Limiter{
		rpm:      DefaultRPM,
		dailyCap: DefaultDailyCap,
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Acquire blocks until the caller may perform one LLM call, polling in
// 100ms increments while either the sliding 60s window or the daily cap
// is saturated. Waiters are not admitted in arrival order: whichever
// polls first after capacity frees up proceeds. No caller is dropped;
// each waits until admitted or until ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		l.mu.Lock()
		now := l.now()
		l.rollDay(now)
		l.evictExpired(now)

		if len(l.calls) < l.rpm && l.dailyCount < l.dailyCap {
			l.calls = append(l.calls, now)
			l.dailyCount++
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// evictExpired drops deque entries older than the 60s sliding window.
// Caller must hold l.mu.
func (l *Limiter) evictExpired(now time.Time) {
	cutoff := now.Add(-60 * time.Second)
	i := 0
	for i < len(l.calls) && l.calls[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.calls = l.calls[i:]
	}
}

// rollDay resets the daily counter when the calendar day has changed.
// Caller must hold l.mu.
func (l *Limiter) rollDay(now time.Time) {
	day := now.Format("2006-01-02")
	if l.dailyDate != day {
		l.dailyDate = day
		l.dailyCount = 0
	}
}

// Snapshot reports current usage, for diagnostics/metrics endpoints.
type Snapshot struct {
	WindowCalls int
	RPM         int
	DailyCount  int
	DailyCap    int
}

func (l *Limiter) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.rollDay(now)
	l.evictExpired(now)
	return Snapshot{
		WindowCalls: len(l.calls),
		RPM:         l.rpm,
		DailyCount:  l.dailyCount,
		DailyCap:    l.dailyCap,
	}
}
