package usecase

import (
	"context"
	"testing"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newQuoteUsecase(prices *fakePriceSource, search *fakeSearch, llm *fakeLLM) *QuoteUsecase {
	symbols := NewSymbolUsecase(prices, search, 0, zap.NewNop())
	return NewQuoteUsecase(symbols, prices, llm, zap.NewNop())
}

func TestQuoteFromTextResolvesWithoutModel(t *testing.T) {
	// End-to-end scenario: "precio de tesla" resolves via search and
	// returns price plus deltas without consulting the model.
	prices := newFakePriceSource()
	prices.setPrice("TSLA", 245.313)
	h1 := mustDecimal(t, "0.42")
	h24 := mustDecimal(t, "-1.1")
	prices.changes["TSLA"] = domain.Changes{H1: &h1, H24: &h24}
	search := &fakeSearch{results: []domain.SearchQuote{
		{Symbol: "TSLA", QuoteType: "EQUITY", Score: 20000},
	}}
	llm := &fakeLLM{}

	uc := newQuoteUsecase(prices, search, llm)
	quote, err := uc.QuoteFromText(context.Background(), "precio de tesla")
	require.NoError(t, err)

	assert.Equal(t, "TSLA", quote.Symbol)
	assert.Equal(t, "245.313", quote.Price.String())
	require.NotNil(t, quote.Changes.H1)
	assert.Equal(t, "0.42", quote.Changes.H1.String())
	require.NotNil(t, quote.Changes.H24)
	assert.Nil(t, quote.Changes.D7, "missing history must surface as absent, not an error")
	assert.Empty(t, llm.prompts, "resolver-only path must not call the model")
}

func TestQuoteFromTextUsesTickerHint(t *testing.T) {
	prices := newFakePriceSource()
	prices.setPrice("GOOGL", 170.25)
	llm := &fakeLLM{replies: []string{"GOOGL"}}

	uc := newQuoteUsecase(prices, &fakeSearch{}, llm)
	quote, err := uc.QuoteFromText(context.Background(), "cuanto vale la empresa de los buscadores")
	require.NoError(t, err)

	assert.Equal(t, "GOOGL", quote.Symbol)
	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "SOLO el ticker")
}

func TestQuoteFromTextUnresolvable(t *testing.T) {
	llm := &fakeLLM{replies: []string{"ni idea"}}
	uc := newQuoteUsecase(newFakePriceSource(), &fakeSearch{}, llm)

	_, err := uc.QuoteFromText(context.Background(), "cosas sin sentido")
	assert.ErrorIs(t, err, ErrSymbolUnresolvable)
}

func TestQuoteFromTextPriceUnavailable(t *testing.T) {
	prices := newFakePriceSource()
	prices.setPrice("TSLA", 245.31)
	search := &fakeSearch{results: []domain.SearchQuote{
		{Symbol: "TSLA", QuoteType: "EQUITY", Score: 20000},
	}}
	uc := newQuoteUsecase(prices, search, &fakeLLM{})

	// Resolution succeeded earlier, then the upstream went dark.
	_, err := uc.QuoteFromText(context.Background(), "precio de tesla")
	require.NoError(t, err)

	prices.clearPrice("TSLA")
	_, err = uc.QuoteFromText(context.Background(), "precio de tesla")
	assert.ErrorIs(t, err, ErrPriceUnavailable)
}
