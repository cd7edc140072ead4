package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

type httpErr struct{ code int }

func (e httpErr) Error() string       { return fmt.Sprintf("http %d", e.code) }
func (e httpErr) HTTPStatusCode() int { return e.code }

var errQuota = errors.New("429 RESOURCE_EXHAUSTED: quota exceeded for model")

func newTestLimiter(clock Clock, cfg Config) *Limiter {
	return New(logger.Nop(), cfg, WithClock(clock))
}

func TestDelayIsNonDecreasingAndCapped(t *testing.T) {
	cfg := DefaultConfig()
	prev := time.Duration(0)
	for attempt := 1; attempt <= 40; attempt++ {
		d := cfg.Delay(attempt)
		assert.GreaterOrEqual(t, d, prev)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
		prev = d
	}
	assert.Equal(t, 5*time.Second, cfg.Delay(1))
	assert.Equal(t, 10*time.Second, cfg.Delay(2))
	assert.Equal(t, 80*time.Second, cfg.Delay(5))
	assert.Equal(t, 120*time.Second, cfg.Delay(6))
}

func TestCallRetriesRateLimitThenSucceeds(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, DefaultConfig())

	calls := 0
	err := l.Call(context.Background(), "google_genai", "initial_coding", func(context.Context) error {
		calls++
		if calls <= 3 {
			return errQuota
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}, clock.Sleeps())

	st := l.Status("google_genai")
	assert.True(t, st.Healthy)
	assert.Equal(t, StateHealthy, st.State)
	assert.Nil(t, st.LastErrorAt)
}

func TestCallExhaustsAfterExactlyMaxAttempts(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{BaseDelay: time.Second, MaxDelay: 8 * time.Second, ResetAfter: time.Hour, MaxAttempts: 6}
	l := newTestLimiter(clock, cfg)

	calls := 0
	err := l.Call(context.Background(), "openai", "code_refinement", func(context.Context) error {
		calls++
		return httpErr{code: 429}
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrProviderExhausted))
	var ex *ExhaustedError
	require.True(t, errors.As(err, &ex))
	assert.Equal(t, "openai", ex.Provider)
	assert.Equal(t, 6, ex.Attempts)
	assert.Equal(t, 6, calls)

	sleeps := clock.Sleeps()
	require.Len(t, sleeps, 5)
	for i := 1; i < len(sleeps); i++ {
		assert.GreaterOrEqual(t, sleeps[i], sleeps[i-1])
		assert.LessOrEqual(t, sleeps[i], cfg.MaxDelay)
	}
	assert.Equal(t, 8*time.Second, sleeps[4])

	st := l.Status("openai")
	assert.False(t, st.Healthy)
	assert.Equal(t, StateBackingOff, st.State)
	assert.Equal(t, 6, st.AttemptCount)
	require.NotNil(t, st.LastErrorAt)
}

func TestCallDoesNotRetryOtherErrors(t *testing.T) {
	clock := newFakeClock()
	l := newTestLimiter(clock, DefaultConfig())
	boom := errors.New("malformed response")

	calls := 0
	err := l.Call(context.Background(), "openai", "grouping", func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
	assert.Empty(t, clock.Sleeps())
	assert.True(t, l.Status("openai").Healthy)
}

func TestQuietWindowRestoresHealth(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{BaseDelay: time.Second, MaxDelay: time.Second, ResetAfter: time.Minute, MaxAttempts: 1}
	l := newTestLimiter(clock, cfg)

	err := l.Call(context.Background(), "openai", "theme", func(context.Context) error { return httpErr{code: 503} })
	require.ErrorIs(t, err, ErrProviderExhausted)
	assert.False(t, l.Status("openai").Healthy)
	assert.True(t, l.Status("google_genai").Healthy, "providers are independent")

	clock.Advance(59 * time.Second)
	assert.False(t, l.Status("openai").Healthy)
	clock.Advance(time.Second)
	assert.True(t, l.Status("openai").Healthy)
}

func TestCallWaitsOutActiveBackoff(t *testing.T) {
	clock := newFakeClock()
	cfg := Config{BaseDelay: 4 * time.Second, MaxDelay: time.Minute, ResetAfter: time.Hour, MaxAttempts: 1}
	l := newTestLimiter(clock, cfg)

	_ = l.Call(context.Background(), "openai", "a", func(context.Context) error { return errQuota })
	clock.Advance(time.Second)

	require.NoError(t, l.Call(context.Background(), "openai", "b", func(context.Context) error { return nil }))
	assert.Equal(t, []time.Duration{3 * time.Second}, clock.Sleeps())
	assert.True(t, l.Status("openai").Healthy)
}

func TestCallStopsOnContextCancel(t *testing.T) {
	l := New(logger.Nop(), Config{BaseDelay: time.Hour, MaxDelay: time.Hour, MaxAttempts: 3})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- l.Call(ctx, "openai", "x", func(context.Context) error {
			calls++
			return errQuota
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	case <-time.After(2 * time.Second):
		t.Fatal("Call did not return after cancel")
	}
}

func TestInvokeReturnsValue(t *testing.T) {
	l := newTestLimiter(newFakeClock(), DefaultConfig())
	n := 0
	got, err := Invoke(context.Background(), l, "openai", "x", func(context.Context) (string, error) {
		n++
		if n == 1 {
			return "", httpErr{code: 402}
		}
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}

func TestConcurrentProvidersDoNotInterfere(t *testing.T) {
	l := newTestLimiter(newFakeClock(), DefaultConfig())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		provider := fmt.Sprintf("p%d", i%2)
		go func() {
			defer wg.Done()
			_ = l.Call(context.Background(), provider, "x", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()
	assert.True(t, l.Status("p0").Healthy)
	assert.True(t, l.Status("p1").Healthy)
}

type memMirror struct {
	mu   sync.Mutex
	data map[string]Status
}

func (m *memMirror) Publish(_ context.Context, st Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[st.Provider] = st
	return nil
}

func (m *memMirror) Fetch(_ context.Context, provider string) (*Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.data[provider]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

func TestSharedStatusSeesOtherReplica(t *testing.T) {
	clock := newFakeClock()
	mirror := &memMirror{data: map[string]Status{}}
	cfg := Config{BaseDelay: time.Second, MaxDelay: time.Second, ResetAfter: time.Minute, MaxAttempts: 1}
	a := New(logger.Nop(), cfg, WithClock(clock), WithMirror(mirror))
	b := New(logger.Nop(), cfg, WithClock(clock), WithMirror(mirror))

	_ = a.Call(context.Background(), "openai", "x", func(context.Context) error { return errQuota })

	assert.True(t, b.Status("openai").Healthy)
	assert.False(t, b.SharedStatus(context.Background(), "openai").Healthy)

	clock.Advance(time.Minute)
	assert.True(t, b.SharedStatus(context.Background(), "openai").Healthy)
}
