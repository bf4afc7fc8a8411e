package market

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubMarketData struct {
	mu           sync.Mutex
	priceCalls   int
	historyCalls int

	quote      *domain.Quote
	quoteErr   error
	candles    []domain.Candle
	historyErr error
}

func (s *stubMarketData) LastPrice(_ context.Context, symbol string) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priceCalls++
	if s.quoteErr != nil {
		return nil, s.quoteErr
	}
	if s.quote != nil {
		return s.quote, nil
	}
	return &domain.Quote{Symbol: symbol, Name: symbol}, nil
}

func (s *stubMarketData) History(_ context.Context, _ string) ([]domain.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyCalls++
	return s.candles, s.historyErr
}

func quoteWithPrice(symbol string, price float64) *domain.Quote {
	value := decimal.NewFromFloat(price)
	return &domain.Quote{Symbol: symbol, Name: symbol, Price: &value}
}

func series(closes ...float64) []domain.Candle {
	candles := make([]domain.Candle, 0, len(closes))
	base := time.Now().Add(-time.Duration(len(closes)) * 5 * time.Minute)
	for i, closePrice := range closes {
		candles = append(candles, domain.Candle{
			Ts:    base.Add(time.Duration(i) * 5 * time.Minute),
			Close: decimal.NewFromFloat(closePrice),
		})
	}
	return candles
}

func TestGetPriceServedFromCacheWithinTTL(t *testing.T) {
	stub := &stubMarketData{quote: quoteWithPrice("AAPL", 189.30)}
	cache := NewPriceCache(stub, 80*time.Millisecond, time.Minute, 512, zap.NewNop())

	first := cache.GetPrice(context.Background(), "AAPL")
	second := cache.GetPrice(context.Background(), "aapl ")
	require.NotNil(t, first.Price)
	require.NotNil(t, second.Price)
	assert.True(t, first.Price.Equal(*second.Price))
	assert.Equal(t, first.CapturedAt, second.CapturedAt, "second read must be the identical snapshot")
	assert.Equal(t, 1, stub.priceCalls, "one upstream call within the TTL")

	time.Sleep(120 * time.Millisecond)
	cache.GetPrice(context.Background(), "AAPL")
	assert.Equal(t, 2, stub.priceCalls, "TTL expiry must trigger a fresh fetch")
}

func TestGetPriceUpstreamFailureYieldsNilPrice(t *testing.T) {
	stub := &stubMarketData{quoteErr: domain.ErrUpstreamUnavailable, historyErr: domain.ErrUpstreamUnavailable}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 512, zap.NewNop())

	snap := cache.GetPrice(context.Background(), "AAPL")
	assert.Nil(t, snap.Price)
	assert.Equal(t, "AAPL", snap.Symbol)

	// The nil snapshot is cached: a dead upstream is not re-queried
	// until the TTL expires.
	cache.GetPrice(context.Background(), "AAPL")
	assert.Equal(t, 1, stub.priceCalls)
}

func TestGetPriceFallsBackToLastClose(t *testing.T) {
	stub := &stubMarketData{
		quote:   &domain.Quote{Symbol: "VTSAX", Name: "Vanguard Total"},
		candles: series(100, 101, 102.5),
	}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 512, zap.NewNop())

	snap := cache.GetPrice(context.Background(), "VTSAX")
	require.NotNil(t, snap.Price)
	assert.Equal(t, "102.5", snap.Price.String())
	assert.Equal(t, "Vanguard Total", snap.Name)
}

func TestGetChangesTailWindows(t *testing.T) {
	// 20 samples at 5m spacing: the 1h window is the last 12, larger horizons
	// clamp to the whole series.
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	stub := &stubMarketData{candles: series(closes...)}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 512, zap.NewNop())

	changes := cache.GetChanges(context.Background(), "AAPL")
	require.NotNil(t, changes.H1)
	require.NotNil(t, changes.H24)
	require.NotNil(t, changes.D7)

	// H1: first = 108, last = 119 -> (119-108)/108*100
	wantH1 := decimal.NewFromInt(11).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(108))
	assert.True(t, changes.H1.Equal(wantH1), "got %s want %s", changes.H1, wantH1)

	// Clamped windows: first = 100, last = 119.
	wantFull := decimal.NewFromInt(19)
	assert.True(t, changes.H24.Equal(wantFull))
	assert.True(t, changes.D7.Equal(wantFull))

	assert.Equal(t, 1, stub.historyCalls, "all horizons share one cached series")
}

func TestGetChangesAbsentCases(t *testing.T) {
	stub := &stubMarketData{}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 512, zap.NewNop())
	changes := cache.GetChanges(context.Background(), "AAPL")
	assert.Nil(t, changes.H1)
	assert.Nil(t, changes.H24)
	assert.Nil(t, changes.D7)

	// Zero first sample cannot anchor a percentage.
	stub2 := &stubMarketData{candles: series(0, 10)}
	cache2 := NewPriceCache(stub2, time.Minute, time.Minute, 512, zap.NewNop())
	assert.Nil(t, cache2.GetChanges(context.Background(), "AAPL").H1)
}

func TestOverflowFlushesTier(t *testing.T) {
	stub := &stubMarketData{quote: quoteWithPrice("X", 1)}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 2, zap.NewNop())

	cache.GetPrice(context.Background(), "AAA")
	cache.GetPrice(context.Background(), "BBB")
	cache.GetPrice(context.Background(), "CCC") // overflow: tier flushed before insert
	assert.Equal(t, 1, cache.prices.ItemCount())

	// AAA was evicted by the flush and must be refetched.
	calls := stub.priceCalls
	cache.GetPrice(context.Background(), "AAA")
	assert.Equal(t, calls+1, stub.priceCalls)
}

func TestConcurrentAccess(t *testing.T) {
	stub := &stubMarketData{quote: quoteWithPrice("AAPL", 189.30), candles: series(100, 101)}
	cache := NewPriceCache(stub, time.Minute, time.Minute, 512, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache.GetPrice(context.Background(), "AAPL")
			cache.GetChanges(context.Background(), "AAPL")
		}()
	}
	wg.Wait()
}
