package market

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"finai/backend/internal/realtime"
)

var quotePrice = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "finai_market_quote_price",
		Help: "Latest mock price per symbol",
	},
	[]string{"symbol"},
)

type Broadcaster interface {
	Broadcast(topic string, payload any)
}

// Ticker advances the board on an interval and pushes each tick to market
// subscribers.
type Ticker struct {
	Board    *Board
	Hub      Broadcaster
	Interval time.Duration
	Logger   *zap.Logger
}

func (t *Ticker) Run(ctx context.Context) {
	interval := t.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

func (t *Ticker) Tick() []Quote {
	quotes := t.Board.Step()
	for _, q := range quotes {
		quotePrice.WithLabelValues(q.Symbol).Set(q.Price.InexactFloat64())
	}
	if t.Hub != nil {
		t.Hub.Broadcast(realtime.TopicMarket, map[string]any{
			"type":   "market.tick",
			"quotes": quotes,
			"at":     time.Now().UTC(),
		})
	}
	if t.Logger != nil {
		t.Logger.Debug("market tick", zap.Int("quotes", len(quotes)))
	}
	return quotes
}
