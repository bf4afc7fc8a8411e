package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrPriceUnavailable = errors.New("price unavailable")

type Quote struct {
	Symbol  string
	Name    string
	Price   decimal.Decimal
	Changes domain.Changes
}

// QuoteUsecase answers "what is X trading at" from free text. It
// avoids the model when the resolver alone can do the job.
type QuoteUsecase struct {
	symbols *SymbolUsecase
	prices  domain.PriceSource
	llm     domain.LLMClient
	logger  *zap.Logger
}

func NewQuoteUsecase(symbols *SymbolUsecase, prices domain.PriceSource, llm domain.LLMClient, logger *zap.Logger) *QuoteUsecase {
	return &QuoteUsecase{symbols: symbols, prices: prices, llm: llm, logger: logger}
}

func (u *QuoteUsecase) QuoteFromText(ctx context.Context, text string) (*Quote, error) {
	symbol, ok := u.symbols.Resolve(ctx, text)
	if !ok {
		symbol, ok = u.resolveViaHint(ctx, text)
	}
	if !ok {
		return nil, ErrSymbolUnresolvable
	}

	snap := u.prices.GetPrice(ctx, symbol)
	if snap.Price == nil {
		return nil, fmt.Errorf("%w: %s", ErrPriceUnavailable, symbol)
	}

	return &Quote{
		Symbol:  snap.Symbol,
		Name:    snap.Name,
		Price:   *snap.Price,
		Changes: u.prices.GetChanges(ctx, symbol),
	}, nil
}

// resolveViaHint asks the model for a bare ticker with a few-shot
// prompt, sanitizes the reply to its first ticker-shaped token and
// resolves again.
func (u *QuoteUsecase) resolveViaHint(ctx context.Context, text string) (string, bool) {
	hint, err := u.llm.Ask(ctx, tickerHintPrompt(text))
	if err != nil {
		u.logger.Warn("ticker hint failed", zap.Error(err))
		return "", false
	}
	candidate := tickerTokenPattern.FindString(strings.ToUpper(hint))
	if candidate == "" {
		return "", false
	}
	return u.symbols.Resolve(ctx, candidate)
}

func tickerHintPrompt(text string) string {
	return "Devuelve SOLO el ticker en mayúsculas, sin texto extra.\n" +
		"Ejemplos:\n" +
		"- 'precio de google' -> GOOGL\n" +
		"- 'precio de alphabet' -> GOOGL\n" +
		"- 'precio de bitcoin' -> BTC-USD\n" +
		"- 'precio de tesla' -> TSLA\n" +
		fmt.Sprintf("Pregunta: '%s'\n", text) +
		"Responde SOLO el ticker (ej: GOOGL)"
}
