package usecase

import (
	"context"
	"regexp"

	"github.com/jperaza/finbot/internal/domain"
	"go.uber.org/zap"
)

type Intent int

const (
	IntentGeneral Intent = iota
	IntentQuote
	IntentAlert
)

var (
	alertHintPattern  = regexp.MustCompile(`(?i)\b(alerta|alertame|av[íi]same|avisame|notifica|notificar)\b`)
	alertShapePattern = regexp.MustCompile(`(?i)\b(si|cuando)\b.*\b(sube|baja|supera|cae|rompe|cruza)\b.*\d`)
	quoteHintPattern  = regexp.MustCompile(`(?i)\b(precio|cotiza|cotizaci[óo]n|quote|price|valor)\b`)
	// Matched against the raw text: only an all-caps ticker-shaped token
	// counts as a financial hint.
	capsTickerPattern = regexp.MustCompile(`\b[A-Z][A-Z0-9.\-]{1,11}\b`)
	intentDigit       = regexp.MustCompile(`[0-2]`)
)

// IntentUsecase classifies a request as general question, market quote
// or alert creation. Deterministic heuristics go first; the model is
// only consulted when they say nothing.
type IntentUsecase struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewIntentUsecase(llm domain.LLMClient, logger *zap.Logger) *IntentUsecase {
	return &IntentUsecase{llm: llm, logger: logger}
}

func (u *IntentUsecase) Classify(ctx context.Context, text string) Intent {
	if alertHintPattern.MatchString(text) || alertShapePattern.MatchString(text) {
		return IntentAlert
	}
	if quoteHintPattern.MatchString(text) || capsTickerPattern.MatchString(text) {
		return IntentQuote
	}

	prompt := "Clasifica la consulta en UNA sola categoría y devuelve SOLO un dígito:\n" +
		"0 = general\n1 = financiero\n2 = alerta\n\n" +
		"Consulta: \"" + text + "\"\n" +
		"Responde SOLO con 0 o 1 o 2."
	raw, err := u.llm.Ask(ctx, prompt)
	if err != nil {
		u.logger.Warn("intent classification failed", zap.Error(err))
		return IntentGeneral
	}

	switch intentDigit.FindString(raw) {
	case "1":
		return IntentQuote
	case "2":
		return IntentAlert
	default:
		return IntentGeneral
	}
}
