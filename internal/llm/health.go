package llm

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	HealthOK    = "ok"
	HealthSlow  = "slow"
	HealthError = "error"

	slowThreshold     = 3 * time.Second
	unhealthyFailures = 3
)

type HealthStore interface {
	InsertHealth(ctx context.Context, provider, status string, latency time.Duration, errorMessage *string) error
	RecentHealthFailures(ctx context.Context, provider string) (int, error)
}

// HealthMonitor periodically pings every configured provider. Three failed
// checks in a row take a provider out of the router chain until it recovers.
type HealthMonitor struct {
	Router   *Router
	Store    HealthStore
	Interval time.Duration
	Logger   *zap.Logger
}

func (h *HealthMonitor) Run(ctx context.Context) {
	interval := h.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.RunOnce(ctx)
		}
	}
}

func (h *HealthMonitor) RunOnce(ctx context.Context) {
	log := h.Logger
	if log == nil {
		log = zap.NewNop()
	}
	for _, provider := range h.Router.Providers() {
		result, err := provider.HealthCheck(ctx)
		status := HealthOK
		if err != nil || result == nil {
			status = HealthError
		} else if result.Latency > slowThreshold {
			status = HealthSlow
		}
		var errMsg *string
		if err != nil {
			msg := err.Error()
			errMsg = &msg
		}
		latency := time.Duration(0)
		if result != nil {
			latency = result.Latency
		}

		name := provider.Name()
		log.Debug("provider health", zap.String("provider", name), zap.String("status", status), zap.Duration("latency", latency))
		if h.Store == nil {
			if status == HealthError {
				h.Router.MarkUnhealthy(name)
			} else {
				h.Router.MarkHealthy(name)
			}
			continue
		}
		if err := h.Store.InsertHealth(ctx, name, status, latency, errMsg); err != nil {
			log.Warn("store provider health", zap.String("provider", name), zap.Error(err))
		}
		if status != HealthError {
			h.Router.MarkHealthy(name)
			continue
		}
		failures, err := h.Store.RecentHealthFailures(ctx, name)
		if err == nil && failures >= unhealthyFailures {
			log.Warn("provider marked unhealthy", zap.String("provider", name), zap.Int("failures", failures))
			h.Router.MarkUnhealthy(name)
		}
	}
}
