package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var ErrNoProviders = errors.New("no llm providers configured")

// UsageRecorder persists one provider call. Implementations must be safe for
// concurrent use.
type UsageRecorder interface {
	InsertUsage(ctx context.Context, provider string, record UsageRecord, costIn, costOut float64) error
}

// Router walks an ordered provider chain. A provider that fails with anything
// other than a rate limit is skipped in favour of the next one; a rate limit
// is returned to the caller so the retry policy can back off.
type Router struct {
	providers []Provider
	cooldown  *cooldown
	usage     UsageRecorder
	logger    *zap.Logger
}

type cooldown struct {
	mu    sync.Mutex
	items map[string]time.Time
	ttl   time.Duration
}

func newCooldown(ttl time.Duration) *cooldown {
	return &cooldown{items: map[string]time.Time{}, ttl: ttl}
}

func (c *cooldown) active(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	until, ok := c.items[name]
	if !ok {
		return false
	}
	if time.Now().After(until) {
		delete(c.items, name)
		return false
	}
	return true
}

func (c *cooldown) set(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[name] = time.Now().Add(c.ttl)
}

func (c *cooldown) clear(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, name)
}

func NewRouter(factory *Factory, configs []ProviderConfig, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{cooldown: newCooldown(5 * time.Minute), logger: logger}
	for i := range configs {
		cfg := configs[i]
		if cfg.APIKey == "" {
			continue
		}
		provider := factory.CreateProvider(&cfg)
		if provider == nil {
			logger.Warn("unsupported llm provider", zap.String("provider", cfg.ProviderName))
			continue
		}
		r.providers = append(r.providers, provider)
	}
	return r
}

// NewRouterWithProviders builds a router around ready-made adapters.
func NewRouterWithProviders(logger *zap.Logger, providers ...Provider) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{providers: providers, cooldown: newCooldown(5 * time.Minute), logger: logger}
}

func (r *Router) WithUsage(recorder UsageRecorder) *Router {
	r.usage = recorder
	return r
}

func (r *Router) Configured() bool {
	return len(r.providers) > 0
}

func (r *Router) Providers() []Provider {
	out := make([]Provider, len(r.providers))
	copy(out, r.providers)
	return out
}

// MarkUnhealthy skips the named provider for the cooldown period unless every
// provider is cooling down.
func (r *Router) MarkUnhealthy(name string) {
	r.cooldown.set(name)
}

func (r *Router) MarkHealthy(name string) {
	r.cooldown.clear(name)
}

func (r *Router) chain() []Provider {
	healthy := make([]Provider, 0, len(r.providers))
	for _, p := range r.providers {
		if !r.cooldown.active(p.Name()) {
			healthy = append(healthy, p)
		}
	}
	if len(healthy) == 0 {
		return r.providers
	}
	return healthy
}

func (r *Router) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	if !r.Configured() {
		return nil, ErrNoProviders
	}
	var errs []error
	for _, provider := range r.chain() {
		start := time.Now()
		completion, err := provider.Complete(ctx, req)
		requestDuration.WithLabelValues(provider.Name(), req.Feature).Observe(time.Since(start).Seconds())
		r.recordUsage(ctx, provider, req.Feature, completion, start, err)
		if err == nil {
			return completion, nil
		}

		var rl *RateLimitError
		if errors.As(err, &rl) {
			return nil, fmt.Errorf("%s: %w", provider.Name(), err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Warn("provider failed, trying next",
			zap.String("provider", provider.Name()),
			zap.String("feature", req.Feature),
			zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", provider.Name(), err))
	}
	return nil, errors.Join(errs...)
}

func (r *Router) recordUsage(ctx context.Context, provider Provider, feature string, completion *Completion, start time.Time, err error) {
	if r.usage == nil {
		return
	}
	record := UsageRecord{Latency: time.Since(start), Success: err == nil, Feature: feature}
	if completion != nil {
		record = completion.Usage
		record.Feature = feature
		record.Success = err == nil
	}
	if err != nil {
		record.ErrorMessage = err.Error()
	}
	cfg := provider.GetConfig()
	var costIn, costOut float64
	if cfg != nil {
		costIn, costOut = cfg.CostPer1KInput, cfg.CostPer1KOutput
	}
	if err := r.usage.InsertUsage(context.WithoutCancel(ctx), provider.Name(), record, costIn, costOut); err != nil {
		r.logger.Debug("usage log failed", zap.Error(err))
	}
}
