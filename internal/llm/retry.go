package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 2 * time.Second
	DefaultMaxDelay   = time.Minute
)

// Classifier reports whether err is a transient rate-limit failure and the
// delay the provider suggested before the next attempt, if any.
type Classifier func(err error) (retryable bool, suggested time.Duration)

// DefaultClassifier treats *RateLimitError anywhere in the chain as retryable.
func DefaultClassifier(err error) (bool, time.Duration) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true, rl.RetryDelay
	}
	return false, 0
}

// Policy configures WithRetry. Configured=false means the provider has no
// credentials and every call goes straight to the fallback. MaxDelay caps a
// single wait, including provider-suggested ones; zero disables the cap.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Configured bool
	Classify   Classifier
	Feature    string
	Logger     *zap.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultPolicy(configured bool, logger *zap.Logger) Policy {
	return Policy{
		MaxRetries: DefaultMaxRetries,
		BaseDelay:  DefaultBaseDelay,
		MaxDelay:   DefaultMaxDelay,
		Configured: configured,
		Classify:   DefaultClassifier,
		Logger:     logger,
	}
}

func (p Policy) ForFeature(feature string) Policy {
	p.Feature = feature
	return p
}

// WithSleeper replaces the wait between attempts. Used by tests.
func (p Policy) WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Policy {
	p.sleep = sleep
	return p
}

type retryState struct {
	attempt    int
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// next advances the attempt counter and returns the wait before the next try,
// or false once maxRetries has been reached.
func (s *retryState) next(suggested time.Duration) (time.Duration, bool) {
	if s.attempt >= s.maxRetries {
		return 0, false
	}
	s.attempt++
	delay := backoff(s.baseDelay, s.attempt)
	if suggested > delay {
		delay = suggested
	}
	if s.maxDelay > 0 && delay > s.maxDelay {
		delay = s.maxDelay
	}
	return delay, true
}

func backoff(base time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	delay := base
	for i := 0; i < attempt; i++ {
		if delay > time.Duration(1<<62)/2 {
			return time.Duration(1 << 62)
		}
		delay *= 2
	}
	return delay
}

// WithRetry calls the provider through policy and always resolves to either a
// provider result or the fallback result. Only the calling goroutine waits
// during backoff.
func WithRetry[T any](ctx context.Context, policy Policy, call func(context.Context) (T, error), fallback func() T) T {
	log := policy.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("feature", policy.Feature))

	if !policy.Configured {
		log.Info("provider not configured, using fallback")
		fallbacksTotal.WithLabelValues(policy.Feature, "unconfigured").Inc()
		return fallback()
	}

	classify := policy.Classify
	if classify == nil {
		classify = DefaultClassifier
	}
	sleep := policy.sleep
	if sleep == nil {
		sleep = sleepContext
	}
	state := retryState{maxRetries: policy.MaxRetries, baseDelay: policy.BaseDelay, maxDelay: policy.MaxDelay}

	for {
		result, err := call(ctx)
		if err == nil {
			return result
		}

		retryable, suggested := classify(err)
		if !retryable {
			log.Error("provider call failed, using fallback", zap.Error(err))
			fallbacksTotal.WithLabelValues(policy.Feature, "error").Inc()
			return fallback()
		}

		delay, ok := state.next(suggested)
		if !ok {
			log.Info("retries exhausted, using fallback", zap.Int("attempts", state.attempt))
			fallbacksTotal.WithLabelValues(policy.Feature, "exhausted").Inc()
			return fallback()
		}

		log.Warn("rate limited, retrying",
			zap.Int("attempt", state.attempt),
			zap.Int("max_retries", state.maxRetries),
			zap.Duration("delay", delay))
		retriesTotal.WithLabelValues(policy.Feature).Inc()

		if err := sleep(ctx, delay); err != nil {
			log.Info("wait interrupted, using fallback", zap.Error(err))
			fallbacksTotal.WithLabelValues(policy.Feature, "canceled").Inc()
			return fallback()
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
