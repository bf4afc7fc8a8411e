package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

var symbolPattern = regexp.MustCompile(`^[A-Z0-9.\-]{1,12}$`)

// Bare tickers users type for the major cryptos. Yahoo only knows the
// quote-currency pair form, e.g. BTC-USD.
var cryptoTickers = map[string]struct{}{
	"BTC": {}, "ETH": {}, "SOL": {}, "DOGE": {}, "ADA": {},
	"XRP": {}, "BNB": {}, "LTC": {}, "DOT": {},
}

var preferredQuoteTypes = map[string]struct{}{
	"EQUITY": {}, "CRYPTOCURRENCY": {}, "ETF": {}, "MUTUALFUND": {}, "INDEX": {},
}

const preferredTypeBonus = 10

// SymbolUsecase resolves free text to a canonical tradable symbol.
// Layered: syntactic fast path, remote search, crypto suffix heuristic.
// Every layer validates against live data because search can return
// delisted instruments.
type SymbolUsecase struct {
	prices   domain.PriceSource
	search   domain.SymbolSearchClient
	resolved *cache.Cache
	logger   *zap.Logger
}

func NewSymbolUsecase(prices domain.PriceSource, search domain.SymbolSearchClient, resolveTTL time.Duration, logger *zap.Logger) *SymbolUsecase {
	return &SymbolUsecase{
		prices:   prices,
		search:   search,
		resolved: cache.New(resolveTTL, 2*resolveTTL),
		logger:   logger,
	}
}

func (u *SymbolUsecase) Resolve(ctx context.Context, query string) (string, bool) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return "", false
	}

	if cached, ok := u.resolved.Get(q); ok {
		return cached.(string), true
	}

	if symbolPattern.MatchString(q) && u.validate(ctx, q) {
		u.resolved.SetDefault(q, q)
		return q, true
	}

	if symbol, ok := u.searchBest(ctx, q); ok && u.validate(ctx, symbol) {
		u.resolved.SetDefault(q, symbol)
		return symbol, true
	}

	if _, ok := cryptoTickers[q]; ok {
		guess := q + "-USD"
		if u.validate(ctx, guess) {
			u.resolved.SetDefault(q, guess)
			return guess, true
		}
	}

	u.logger.Debug("symbol unresolved", zap.String("query", query))
	return "", false
}

// validate accepts a symbol when the live source knows a current price
// or a non-empty recent history for it.
func (u *SymbolUsecase) validate(ctx context.Context, symbol string) bool {
	if u.prices.GetPrice(ctx, symbol).Price != nil {
		return true
	}
	return len(u.prices.History(ctx, symbol)) > 0
}

func (u *SymbolUsecase) searchBest(ctx context.Context, query string) (string, bool) {
	quotes, err := u.search.Search(ctx, query)
	if err != nil {
		u.logger.Warn("symbol search failed", zap.String("query", query), zap.Error(err))
		return "", false
	}

	best := ""
	bestScore := 0.0
	found := false
	for _, quote := range quotes {
		symbol := strings.ToUpper(strings.TrimSpace(quote.Symbol))
		if symbol == "" {
			continue
		}
		score := quote.Score
		if _, ok := preferredQuoteTypes[strings.ToUpper(quote.QuoteType)]; ok {
			score += preferredTypeBonus
		}
		if !found || score > bestScore {
			best, bestScore, found = symbol, score, true
		}
	}
	return best, found
}
