package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrUpstreamUnavailable = errors.New("upstream unavailable")

// PriceSnapshot is the cache-resident view of a symbol's last price.
// A nil Price means "temporarily unknown", not an error.
type PriceSnapshot struct {
	Symbol     string
	Name       string
	Price      *decimal.Decimal
	CapturedAt time.Time
}

type Candle struct {
	Ts    time.Time
	Close decimal.Decimal
}

// Changes holds percentage moves over standard horizons. A nil field
// means the history window was insufficient to compute it.
type Changes struct {
	H1  *decimal.Decimal
	H24 *decimal.Decimal
	D7  *decimal.Decimal
}

type Quote struct {
	Symbol string
	Name   string
	Price  *decimal.Decimal
}

type MarketDataClient interface {
	LastPrice(ctx context.Context, symbol string) (*Quote, error)
	History(ctx context.Context, symbol string) ([]Candle, error)
}

// PriceSource is the cached read side shared by user queries and the
// alert checker.
type PriceSource interface {
	GetPrice(ctx context.Context, symbol string) PriceSnapshot
	GetChanges(ctx context.Context, symbol string) Changes
	History(ctx context.Context, symbol string) []Candle
}

type SearchQuote struct {
	Symbol    string
	QuoteType string
	Score     float64
}

type SymbolSearchClient interface {
	Search(ctx context.Context, query string) ([]SearchQuote, error)
}

type LLMClient interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type ShockEvent struct {
	Symbol       string
	At           time.Time
	Delta15m     *decimal.Decimal
	Delta1h      *decimal.Decimal
	ThresholdHit string // "15m", "1h" or "none"
}
