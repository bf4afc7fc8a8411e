package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client speaks the Yahoo Finance chart and search APIs. It implements
// both domain.MarketDataClient and domain.SymbolSearchClient.
type Client struct {
	quoteBaseURL  string
	searchBaseURL string
	client        *http.Client
	logger        *zap.Logger
}

func NewClient(quoteBaseURL, searchBaseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		quoteBaseURL:  strings.TrimRight(quoteBaseURL, "/"),
		searchBaseURL: strings.TrimRight(searchBaseURL, "/"),
		client:        &http.Client{Timeout: timeout},
		logger:        logger,
	}
}

// LastPrice fetches the intraday chart and prefers the regular market
// price from its meta block, falling back to the last non-null close.
func (c *Client) LastPrice(ctx context.Context, symbol string) (*domain.Quote, error) {
	result, err := c.chart(ctx, symbol, "1d", "1m")
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{Symbol: symbol, Name: displayName(result, symbol)}
	if result.Meta.RegularMarketPrice != nil {
		price := decimal.NewFromFloat(*result.Meta.RegularMarketPrice)
		quote.Price = &price
		return quote, nil
	}

	candles := mapCandles(result)
	if len(candles) > 0 {
		price := candles[len(candles)-1].Close
		quote.Price = &price
	}
	return quote, nil
}

// History returns the uniformly sampled 5-minute series over the last
// seven days. Change windows are derived from it.
func (c *Client) History(ctx context.Context, symbol string) ([]domain.Candle, error) {
	result, err := c.chart(ctx, symbol, "7d", "5m")
	if err != nil {
		return nil, err
	}
	return mapCandles(result), nil
}

func (c *Client) Search(ctx context.Context, query string) ([]domain.SearchQuote, error) {
	endpoint := fmt.Sprintf("%s/v1/finance/search?%s", c.searchBaseURL, url.Values{
		"q":           {query},
		"quotesCount": {"6"},
		"newsCount":   {"0"},
	}.Encode())

	var payload searchResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}

	quotes := make([]domain.SearchQuote, 0, len(payload.Quotes))
	for _, q := range payload.Quotes {
		quotes = append(quotes, domain.SearchQuote{
			Symbol:    q.Symbol,
			QuoteType: q.QuoteType,
			Score:     q.Score,
		})
	}
	return quotes, nil
}

func (c *Client) chart(ctx context.Context, symbol, chartRange, interval string) (*chartResult, error) {
	endpoint := fmt.Sprintf(
		"%s/v8/finance/chart/%s?range=%s&interval=%s",
		c.quoteBaseURL, url.PathEscape(symbol), chartRange, interval,
	)

	var payload chartResponse
	if err := c.getJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if payload.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error: %s", payload.Chart.Error.Code)
	}
	if len(payload.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart: empty result for %s", symbol)
	}
	return &payload.Chart.Result[0], nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	request.Header.Set("User-Agent", "Mozilla/5.0")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("yahoo request failed", zap.String("url", endpoint), zap.Error(err))
		return fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer response.Body.Close()

	c.logger.Debug(
		"yahoo request complete",
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("yahoo error: status %d", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(out)
}

func displayName(result *chartResult, fallback string) string {
	if result.Meta.ShortName != "" {
		return result.Meta.ShortName
	}
	if result.Meta.LongName != "" {
		return result.Meta.LongName
	}
	return fallback
}

func mapCandles(result *chartResult) []domain.Candle {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}
	closes := result.Indicators.Quote[0].Close
	candles := make([]domain.Candle, 0, len(closes))
	for i, closePrice := range closes {
		if closePrice == nil || i >= len(result.Timestamp) {
			continue
		}
		candles = append(candles, domain.Candle{
			Ts:    time.Unix(result.Timestamp[i], 0).UTC(),
			Close: decimal.NewFromFloat(*closePrice),
		})
	}
	return candles
}
