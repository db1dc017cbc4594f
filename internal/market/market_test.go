package market

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finai/backend/internal/realtime"
)

func TestQuoteJSONUsesNumbers(t *testing.T) {
	raw, err := json.Marshal(DefaultQuotes()[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"symbol":"NIFTY50","name":"NIFTY 50","price":22643.4,"change":169.8,"changePercent":0.75}`, string(raw))
}

func TestDefaultQuotes(t *testing.T) {
	quotes := DefaultQuotes()
	require.Len(t, quotes, 5)
	symbols := make([]string, 0, len(quotes))
	for _, q := range quotes {
		symbols = append(symbols, q.Symbol)
	}
	assert.Equal(t, []string{"NIFTY50", "SENSEX", "USDINR", "GOLD", "CRUDEOIL"}, symbols)
	assert.Equal(t, "-0.87", quotes[4].ChangePercent.String())
}

func TestBoardStepStaysNearPreviousClose(t *testing.T) {
	board := NewBoard(42)
	before := board.Snapshot()
	after := board.Step()
	require.Len(t, after, len(before))

	for i, q := range after {
		prev := before[i].Price.Sub(before[i].Change)
		assert.True(t, q.Change.Equal(q.Price.Sub(prev).Round(2)), q.Symbol)
		moved := q.Price.Sub(before[i].Price).Abs()
		limit := before[i].Price.Mul(decimal.NewFromFloat(maxDrift)).Add(decimal.NewFromFloat(0.01))
		assert.True(t, moved.LessThanOrEqual(limit), q.Symbol)
	}

	assert.Equal(t, before, DefaultQuotes(), "snapshot must not alias board state")
}

func TestBoardSeedIsDeterministic(t *testing.T) {
	a, b := NewBoard(7), NewBoard(7)
	for i := 0; i < 5; i++ {
		assert.Equal(t, a.Step(), b.Step())
	}
}

type hubSpy struct {
	mu     sync.Mutex
	topics []string
}

func (h *hubSpy) Broadcast(topic string, payload any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics = append(h.topics, topic)
}

func (h *hubSpy) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics)
}

func TestTickerBroadcastsToMarketTopic(t *testing.T) {
	hub := &hubSpy{}
	ticker := &Ticker{Board: NewBoard(1), Hub: hub, Interval: 5 * time.Millisecond}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		ticker.Run(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return hub.count() >= 2 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	hub.mu.Lock()
	defer hub.mu.Unlock()
	for _, topic := range hub.topics {
		assert.Equal(t, realtime.TopicMarket, topic)
	}
}
