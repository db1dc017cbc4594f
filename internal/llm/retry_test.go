package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func testPolicy(t *testing.T, maxRetries int, base time.Duration, rec *sleepRecorder) Policy {
	policy := DefaultPolicy(true, zaptest.NewLogger(t)).ForFeature("test")
	policy.MaxRetries = maxRetries
	policy.BaseDelay = base
	return policy.WithSleeper(rec.sleep)
}

func rateLimited(delay time.Duration) error {
	return &RateLimitError{StatusCode: 429, RetryDelay: delay, Err: errors.New("quota")}
}

func TestWithRetrySucceedsAfterRateLimits(t *testing.T) {
	rec := &sleepRecorder{}
	base := 10 * time.Millisecond
	calls := 0

	result := WithRetry(context.Background(), testPolicy(t, 3, base, rec), func(context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", rateLimited(0)
		}
		return "provider answer", nil
	}, func() string { return "fallback" })

	assert.Equal(t, "provider answer", result)
	assert.Equal(t, 3, calls)
	require.Len(t, rec.delays, 2)
	for i, d := range rec.delays {
		attempt := i + 1
		assert.GreaterOrEqual(t, d, base*time.Duration(1<<attempt))
	}
}

func TestWithRetryFallsBackWhenExhausted(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0

	result := WithRetry(context.Background(), testPolicy(t, 2, time.Millisecond, rec), func(context.Context) (int, error) {
		calls++
		return 0, rateLimited(0)
	}, func() int { return 42 })

	assert.Equal(t, 42, result)
	assert.Len(t, rec.delays, 2)
	assert.Equal(t, 3, calls)
}

func TestWithRetrySkipsProviderWhenUnconfigured(t *testing.T) {
	rec := &sleepRecorder{}
	policy := testPolicy(t, 3, time.Millisecond, rec)
	policy.Configured = false

	called := false
	result := WithRetry(context.Background(), policy, func(context.Context) (string, error) {
		called = true
		return "nope", nil
	}, func() string { return "offline" })

	assert.Equal(t, "offline", result)
	assert.False(t, called)
	assert.Empty(t, rec.delays)
}

func TestWithRetryDoesNotRetryOtherErrors(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0

	result := WithRetry(context.Background(), testPolicy(t, 3, time.Millisecond, rec), func(context.Context) (string, error) {
		calls++
		return "", errors.New("500 internal")
	}, func() string { return "fallback" })

	assert.Equal(t, "fallback", result)
	assert.Equal(t, 1, calls)
	assert.Empty(t, rec.delays)
}

func TestWithRetryUsesLargerSuggestedDelay(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0

	WithRetry(context.Background(), testPolicy(t, 3, 100*time.Millisecond, rec), func(context.Context) (string, error) {
		calls++
		switch calls {
		case 1:
			return "", rateLimited(10 * time.Second)
		case 2:
			return "", rateLimited(50 * time.Millisecond)
		}
		return "ok", nil
	}, func() string { return "fallback" })

	require.Len(t, rec.delays, 2)
	assert.Equal(t, 10*time.Second, rec.delays[0])
	assert.Equal(t, 400*time.Millisecond, rec.delays[1])
}

func TestWithRetryCapsSuggestedDelay(t *testing.T) {
	rec := &sleepRecorder{}
	policy := testPolicy(t, 2, time.Millisecond, rec)
	policy.MaxDelay = 30 * time.Second
	calls := 0

	result := WithRetry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", rateLimited(time.Hour)
		}
		return "ok", nil
	}, func() string { return "fallback" })

	assert.Equal(t, "ok", result)
	assert.Equal(t, []time.Duration{30 * time.Second}, rec.delays)
}

func TestDefaultPolicyCapsWaits(t *testing.T) {
	policy := DefaultPolicy(true, nil)
	assert.Equal(t, DefaultMaxDelay, policy.MaxDelay)

	state := retryState{maxRetries: 40, baseDelay: time.Second, maxDelay: policy.MaxDelay}
	for i := 0; i < 40; i++ {
		d, ok := state.next(1000 * time.Hour)
		require.True(t, ok)
		assert.Equal(t, time.Minute, d)
	}
}

func TestWithRetryWrappedRateLimit(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0

	result := WithRetry(context.Background(), testPolicy(t, 1, time.Millisecond, rec), func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", fmt.Errorf("gemini: %w", rateLimited(0))
		}
		return "ok", nil
	}, func() string { return "fallback" })

	assert.Equal(t, "ok", result)
	assert.Len(t, rec.delays, 1)
}

func TestWithRetryCustomClassifier(t *testing.T) {
	rec := &sleepRecorder{}
	policy := testPolicy(t, 1, time.Millisecond, rec)
	policy.Classify = func(err error) (bool, time.Duration) {
		return err.Error() == "busy", 0
	}
	calls := 0

	result := WithRetry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		return "", errors.New("busy")
	}, func() string { return "fallback" })

	assert.Equal(t, "fallback", result)
	assert.Equal(t, 2, calls)
}

func TestWithRetryCanceledWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DefaultPolicy(true, zaptest.NewLogger(t))
	policy.BaseDelay = time.Hour

	done := make(chan string, 1)
	go func() {
		done <- WithRetry(ctx, policy, func(context.Context) (string, error) {
			return "", rateLimited(0)
		}, func() string { return "fallback" })
	}()
	cancel()

	select {
	case result := <-done:
		assert.Equal(t, "fallback", result)
	case <-time.After(5 * time.Second):
		t.Fatal("retry did not stop on cancellation")
	}
}

func TestWithRetryRealWait(t *testing.T) {
	policy := DefaultPolicy(true, zaptest.NewLogger(t))
	policy.MaxRetries = 1
	policy.BaseDelay = time.Millisecond
	calls := 0

	start := time.Now()
	result := WithRetry(context.Background(), policy, func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", rateLimited(0)
		}
		return "ok", nil
	}, func() string { return "fallback" })

	assert.Equal(t, "ok", result)
	assert.GreaterOrEqual(t, time.Since(start), 2*time.Millisecond)
}

func TestWithRetryIndependentCalls(t *testing.T) {
	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := &sleepRecorder{}
			calls := 0
			results[i] = WithRetry(context.Background(), testPolicy(t, 3, time.Millisecond, rec), func(context.Context) (string, error) {
				calls++
				if calls <= i%4 {
					return "", rateLimited(0)
				}
				return "ok", nil
			}, func() string { return "fallback" })
		}(i)
	}
	wg.Wait()
	for _, r := range results {
		assert.Equal(t, "ok", r)
	}
}

func TestRetryStateStopsAtMax(t *testing.T) {
	state := retryState{maxRetries: 2, baseDelay: time.Second}
	d, ok := state.next(0)
	assert.True(t, ok)
	assert.Equal(t, 2*time.Second, d)
	d, ok = state.next(0)
	assert.True(t, ok)
	assert.Equal(t, 4*time.Second, d)
	_, ok = state.next(0)
	assert.False(t, ok)
	assert.Equal(t, 2, state.attempt)
}
