package ratelimit

import (
	"context"
	"math"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

const (
	StateHealthy    = "healthy"
	StateBackingOff = "backing_off"
)

type Config struct {
	BaseDelay   time.Duration `yaml:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay"`
	ResetAfter  time.Duration `yaml:"reset_after"`
	MaxAttempts int           `yaml:"max_attempts"`
}

func DefaultConfig() Config {
	return Config{
		BaseDelay:   5 * time.Second,
		MaxDelay:    120 * time.Second,
		ResetAfter:  300 * time.Second,
		MaxAttempts: 15,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BaseDelay <= 0 {
		c.BaseDelay = def.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = def.MaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	if c.ResetAfter <= 0 {
		c.ResetAfter = def.ResetAfter
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	return c
}

// Delay is min(base * 2^(attempt-1), max) for attempt >= 1.
func (c Config) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	mult := math.Pow(2, float64(attempt-1))
	d := float64(c.BaseDelay) * mult
	if d > float64(c.MaxDelay) || math.IsInf(d, 0) {
		return c.MaxDelay
	}
	return time.Duration(d)
}

// Status is a read-only snapshot of one provider's backoff state.
type Status struct {
	Provider         string     `json:"provider"`
	State            string     `json:"status"`
	Healthy          bool       `json:"healthy"`
	AttemptCount     int        `json:"attempt_count"`
	CurrentDelay     float64    `json:"current_delay_seconds"`
	NextDelaySeconds float64    `json:"next_delay_seconds"`
	LastErrorAt      *time.Time `json:"last_error_time,omitempty"`
}

type providerState struct {
	mu           sync.Mutex
	failures     int
	currentDelay time.Duration
	lastErrorAt  time.Time
}

// StatusMirror shares provider status across processes. Optional.
type StatusMirror interface {
	Publish(ctx context.Context, st Status) error
	Fetch(ctx context.Context, provider string) (*Status, error)
}

// Limiter wraps provider calls with per-provider exponential backoff.
type Limiter struct {
	cfg    Config
	clock  Clock
	log    *logger.Logger
	mirror StatusMirror
	tracer trace.Tracer

	mu        sync.Mutex
	providers map[string]*providerState
}

type Option func(*Limiter)

func WithClock(c Clock) Option {
	return func(l *Limiter) {
		if c != nil {
			l.clock = c
		}
	}
}

func WithMirror(m StatusMirror) Option {
	return func(l *Limiter) { l.mirror = m }
}

func New(log *logger.Logger, cfg Config, opts ...Option) *Limiter {
	l := &Limiter{
		cfg:       cfg.withDefaults(),
		clock:     RealClock(),
		log:       log.With("service", "RateLimiter"),
		tracer:    otel.Tracer("fulltheme/ratelimit"),
		providers: map[string]*providerState{},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Limiter) Config() Config { return l.cfg }

func (l *Limiter) state(provider string) *providerState {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.providers[provider]
	if !ok {
		st = &providerState{}
		l.providers[provider] = st
	}
	return st
}

// Call runs fn, retrying rate-limit failures with backoff. Other failures are
// returned as-is. Once MaxAttempts calls have failed it returns *ExhaustedError.
func (l *Limiter) Call(ctx context.Context, provider, operation string, fn func(ctx context.Context) error) error {
	ctx, span := l.tracer.Start(ctx, "ratelimit.call", trace.WithAttributes(
		attribute.String("llm.provider", provider),
		attribute.String("llm.operation", operation),
	))
	defer span.End()

	if wait := l.remainingBackoff(provider); wait > 0 {
		l.log.Info("Provider backing off, waiting before call",
			"provider", provider, "operation", operation, "wait", wait.String())
		if err := l.clock.Sleep(ctx, wait); err != nil {
			return err
		}
	}

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			l.recordSuccess(ctx, provider)
			span.SetAttributes(attribute.Int("llm.attempts", attempt))
			return nil
		}
		if !IsRateLimited(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		delay := l.cfg.Delay(attempt)
		l.recordFailure(ctx, provider, delay)

		if attempt >= l.cfg.MaxAttempts {
			ex := &ExhaustedError{Provider: provider, Operation: operation, Attempts: attempt, Err: err}
			l.log.Error("Provider rate limit exhausted",
				"provider", provider, "operation", operation, "attempts", attempt, "error", err)
			span.RecordError(ex)
			span.SetStatus(codes.Error, "rate limit exhausted")
			return ex
		}

		l.log.Warn("Rate limited, backing off",
			"provider", provider,
			"operation", operation,
			"attempt", attempt,
			"max_attempts", l.cfg.MaxAttempts,
			"delay", delay.String(),
			"error", err.Error(),
		)
		if err := l.clock.Sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// Invoke is Call for functions that return a value.
func Invoke[T any](ctx context.Context, l *Limiter, provider, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := l.Call(ctx, provider, operation, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (l *Limiter) remainingBackoff(provider string) time.Duration {
	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failures == 0 {
		return 0
	}
	elapsed := l.clock.Now().Sub(st.lastErrorAt)
	if elapsed >= l.cfg.ResetAfter {
		st.reset()
		return 0
	}
	return st.currentDelay - elapsed
}

func (l *Limiter) recordFailure(ctx context.Context, provider string, delay time.Duration) {
	st := l.state(provider)
	st.mu.Lock()
	st.failures++
	st.currentDelay = delay
	st.lastErrorAt = l.clock.Now()
	snap := l.snapshotLocked(provider, st)
	st.mu.Unlock()
	l.publish(ctx, snap)
}

func (l *Limiter) recordSuccess(ctx context.Context, provider string) {
	st := l.state(provider)
	st.mu.Lock()
	wasBackingOff := st.failures > 0
	st.reset()
	snap := l.snapshotLocked(provider, st)
	st.mu.Unlock()
	if wasBackingOff {
		l.log.Info("Provider recovered", "provider", provider)
		l.publish(ctx, snap)
	}
}

func (s *providerState) reset() {
	s.failures = 0
	s.currentDelay = 0
	s.lastErrorAt = time.Time{}
}

// Status returns this process's view of provider. A provider quiet for the
// reset window is reported, and reset, as healthy.
func (l *Limiter) Status(provider string) Status {
	st := l.state(provider)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.failures > 0 && l.clock.Now().Sub(st.lastErrorAt) >= l.cfg.ResetAfter {
		st.reset()
	}
	return l.snapshotLocked(provider, st)
}

// SharedStatus prefers a degraded status published by another process when
// this process has seen no recent errors itself.
func (l *Limiter) SharedStatus(ctx context.Context, provider string) Status {
	local := l.Status(provider)
	if !local.Healthy || l.mirror == nil {
		return local
	}
	remote, err := l.mirror.Fetch(ctx, provider)
	if err != nil {
		l.log.Debug("Limiter status mirror fetch failed", "provider", provider, "error", err)
		return local
	}
	if remote == nil || remote.Healthy || remote.LastErrorAt == nil {
		return local
	}
	if l.clock.Now().Sub(*remote.LastErrorAt) >= l.cfg.ResetAfter {
		return local
	}
	return *remote
}

func (l *Limiter) snapshotLocked(provider string, st *providerState) Status {
	out := Status{
		Provider:         provider,
		State:            StateHealthy,
		Healthy:          true,
		AttemptCount:     st.failures,
		CurrentDelay:     st.currentDelay.Seconds(),
		NextDelaySeconds: l.cfg.Delay(st.failures + 1).Seconds(),
	}
	if st.failures > 0 {
		out.State = StateBackingOff
		out.Healthy = false
		ts := st.lastErrorAt
		out.LastErrorAt = &ts
	}
	return out
}

func (l *Limiter) publish(ctx context.Context, st Status) {
	if l.mirror == nil {
		return
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 500*time.Millisecond)
	defer cancel()
	if err := l.mirror.Publish(pctx, st); err != nil {
		l.log.Debug("Limiter status mirror publish failed", "provider", st.Provider, "error", err)
	}
}
