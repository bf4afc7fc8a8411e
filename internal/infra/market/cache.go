package market

import (
	"context"
	"strings"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const minutesPerSample = 5

// PriceCache shields callers from live-data latency. Last prices and
// the history series live in separate TTL tiers: price lookups are
// frequent and latency-sensitive, change computations are not.
type PriceCache struct {
	md         domain.MarketDataClient
	prices     *cache.Cache
	histories  *cache.Cache
	maxEntries int
	logger     *zap.Logger
}

func NewPriceCache(md domain.MarketDataClient, priceTTL, historyTTL time.Duration, maxEntries int, logger *zap.Logger) *PriceCache {
	return &PriceCache{
		md:         md,
		prices:     cache.New(priceTTL, 2*priceTTL),
		histories:  cache.New(historyTTL, 2*historyTTL),
		maxEntries: maxEntries,
		logger:     logger,
	}
}

// GetPrice returns the cached snapshot or fetches a fresh one. An
// unreachable upstream yields a snapshot with a nil price; the nil
// snapshot is cached too so a dead upstream is not hammered every call.
func (c *PriceCache) GetPrice(ctx context.Context, symbol string) domain.PriceSnapshot {
	symbol = normalize(symbol)
	if cached, ok := c.prices.Get(symbol); ok {
		return cached.(domain.PriceSnapshot)
	}

	snap := domain.PriceSnapshot{Symbol: symbol, Name: symbol, CapturedAt: time.Now()}
	quote, err := c.md.LastPrice(ctx, symbol)
	if err != nil {
		c.logger.Warn("last price fetch failed", zap.String("symbol", symbol), zap.Error(err))
	} else if quote != nil {
		if quote.Name != "" {
			snap.Name = quote.Name
		}
		snap.Price = quote.Price
	}

	if snap.Price == nil {
		if candles := c.History(ctx, symbol); len(candles) > 0 {
			last := candles[len(candles)-1].Close
			snap.Price = &last
		}
	}

	c.set(c.prices, symbol, snap)
	return snap
}

// GetChanges derives 1h/24h/7d percentage moves from the history tier.
func (c *PriceCache) GetChanges(ctx context.Context, symbol string) domain.Changes {
	candles := c.History(ctx, symbol)
	return domain.Changes{
		H1:  pctChange(candles, 60),
		H24: pctChange(candles, 24*60),
		D7:  pctChange(candles, 7*24*60),
	}
}

func (c *PriceCache) History(ctx context.Context, symbol string) []domain.Candle {
	symbol = normalize(symbol)
	if cached, ok := c.histories.Get(symbol); ok {
		return cached.([]domain.Candle)
	}

	candles, err := c.md.History(ctx, symbol)
	if err != nil {
		c.logger.Warn("history fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return nil
	}
	c.set(c.histories, symbol, candles)
	return candles
}

// set enforces the capacity bound: on overflow the whole tier is
// flushed, not evicted entry by entry.
func (c *PriceCache) set(tier *cache.Cache, key string, value interface{}) {
	if tier.ItemCount() >= c.maxEntries {
		tier.Flush()
	}
	tier.Set(key, value, cache.DefaultExpiration)
}

func pctChange(candles []domain.Candle, minutes int) *decimal.Decimal {
	if len(candles) == 0 {
		return nil
	}
	n := minutes / minutesPerSample
	if n < 1 {
		n = 1
	}
	if n > len(candles) {
		n = len(candles)
	}
	window := candles[len(candles)-n:]
	first := window[0].Close
	last := window[len(window)-1].Close
	if first.IsZero() {
		return nil
	}
	change := last.Sub(first).Mul(decimal.NewFromInt(100)).Div(first)
	return &change
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
