package market

import (
	"encoding/json"
	"math/rand/v2"
	"sync"

	"github.com/shopspring/decimal"
)

// Quote is one instrument on the board. Values are decimals internally and
// numbers on the wire.
type Quote struct {
	Symbol        string
	Name          string
	Price         decimal.Decimal
	Change        decimal.Decimal
	ChangePercent decimal.Decimal
}

func (q Quote) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Symbol        string  `json:"symbol"`
		Name          string  `json:"name"`
		Price         float64 `json:"price"`
		Change        float64 `json:"change"`
		ChangePercent float64 `json:"changePercent"`
	}{
		Symbol:        q.Symbol,
		Name:          q.Name,
		Price:         q.Price.InexactFloat64(),
		Change:        q.Change.InexactFloat64(),
		ChangePercent: q.ChangePercent.InexactFloat64(),
	})
}

func quote(symbol, name, price, change, percent string) Quote {
	return Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		Change:        decimal.RequireFromString(change),
		ChangePercent: decimal.RequireFromString(percent),
	}
}

// DefaultQuotes is the opening board.
func DefaultQuotes() []Quote {
	return []Quote{
		quote("NIFTY50", "NIFTY 50", "22643.4", "169.8", "0.75"),
		quote("SENSEX", "SENSEX", "74572.68", "484.3", "0.65"),
		quote("USDINR", "USD/INR", "83.24", "-0.1", "-0.12"),
		quote("GOLD", "GOLD", "67945", "217.42", "0.32"),
		quote("CRUDEOIL", "CRUDE OIL", "6795", "-59.1", "-0.87"),
	}
}

var (
	hundred  = decimal.NewFromInt(100)
	maxDrift = 0.002
)

// Board holds the mock quotes. Each Step moves every price by a small random
// amount and recomputes change against the previous close.
type Board struct {
	mu     sync.RWMutex
	quotes []Quote
	closes map[string]decimal.Decimal
	rng    *rand.Rand
}

func NewBoard(seed uint64) *Board {
	quotes := DefaultQuotes()
	closes := make(map[string]decimal.Decimal, len(quotes))
	for _, q := range quotes {
		closes[q.Symbol] = q.Price.Sub(q.Change)
	}
	return &Board{
		quotes: quotes,
		closes: closes,
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (b *Board) Snapshot() []Quote {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Quote, len(b.quotes))
	copy(out, b.quotes)
	return out
}

func (b *Board) Step() []Quote {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.quotes {
		q := &b.quotes[i]
		drift := decimal.NewFromFloat((b.rng.Float64()*2 - 1) * maxDrift)
		q.Price = q.Price.Mul(decimal.NewFromInt(1).Add(drift)).Round(2)
		prev := b.closes[q.Symbol]
		q.Change = q.Price.Sub(prev).Round(2)
		if prev.IsZero() {
			q.ChangePercent = decimal.Zero
		} else {
			q.ChangePercent = q.Change.Div(prev).Mul(hundred).Round(2)
		}
	}
	out := make([]Quote, len(b.quotes))
	copy(out, b.quotes)
	return out
}
