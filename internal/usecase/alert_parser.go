package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrModelOutputUnusable = errors.New("model output unusable")
	ErrMissingFields       = errors.New("missing alert fields")
	ErrSymbolUnresolvable  = errors.New("symbol unresolvable")
)

// AlertDraft is a fully normalized alert candidate with the symbol
// already resolved to its canonical form.
type AlertDraft struct {
	Symbol    string
	Condition domain.Condition
	Threshold decimal.Decimal
}

// draftStrategy is one link of the extraction chain. The chain stops
// at the first strategy producing a complete draft.
type draftStrategy interface {
	name() string
	extract(ctx context.Context, text string) (*AlertDraft, error)
}

var greaterTokens = []string{"mayor", "arriba", "supera", "sube", ">", ">=", "gt", "ge", "above", "greater", "over"}

var lessTokens = []string{"menor", "abajo", "debajo", "cae", "baja", "<", "<=", "lt", "le", "below", "less", "under"}

var conditionVocabulary = buildConditionVocabulary()

func buildConditionVocabulary() map[string]domain.Condition {
	vocabulary := make(map[string]domain.Condition, len(greaterTokens)+len(lessTokens))
	for _, token := range greaterTokens {
		vocabulary[token] = domain.ConditionGreaterThan
	}
	for _, token := range lessTokens {
		vocabulary[token] = domain.ConditionLessThan
	}
	return vocabulary
}

var (
	tickerTokenPattern = regexp.MustCompile(`\b[A-Z0-9.\-]{1,12}\b`)
	numberTokenPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	greaterHintPattern = regexp.MustCompile(`\b(MAYOR|SUPERA|ARRIBA|ABOVE|GREATER|OVER)\b|>\s*=?`)
	lessHintPattern    = regexp.MustCompile(`\b(MENOR|BAJA|CAE|DEBAJO|BELOW|LESS|UNDER)\b|<\s*=?`)
	plainNumberPattern = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

func normalizeCondition(token string) (domain.Condition, bool) {
	condition, ok := conditionVocabulary[strings.ToLower(strings.TrimSpace(token))]
	return condition, ok
}

// normalizeThreshold accepts numeric JSON values directly; strings get
// decimal-comma replaced and the first numeric token extracted.
// Negative thresholds are rejected.
func normalizeThreshold(value interface{}) (decimal.Decimal, bool) {
	switch v := value.(type) {
	case float64:
		if v < 0 {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(v), true
	case json.Number:
		parsed, err := decimal.NewFromString(v.String())
		if err != nil || parsed.IsNegative() {
			return decimal.Decimal{}, false
		}
		return parsed, true
	case string:
		token := plainNumberPattern.FindString(strings.ReplaceAll(v, ",", "."))
		if token == "" {
			return decimal.Decimal{}, false
		}
		parsed, err := decimal.NewFromString(token)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return parsed, true
	default:
		return decimal.Decimal{}, false
	}
}

// llmDraftStrategy asks the model for a strict single-object JSON
// payload and normalizes it field by field. Anything short of a
// complete draft fails the strategy so the chain can fall through.
type llmDraftStrategy struct {
	llm     domain.LLMClient
	symbols *SymbolUsecase
	logger  *zap.Logger
}

const alertMold = `{"simbolo":"<TICKER|NOMBRE>","condicion":"mayor|menor","umbral":123.45}`

func (s *llmDraftStrategy) name() string { return "llm" }

func (s *llmDraftStrategy) extract(ctx context.Context, text string) (*AlertDraft, error) {
	prompt := "Devuelve SOLO un JSON (sin texto extra) con estas claves EXACTAS:\n" +
		alertMold +
		"\nNo expliques nada. Solo el JSON.\n" +
		fmt.Sprintf("Solicitud: '%s'", text)

	raw, err := s.llm.Ask(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelOutputUnusable, err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("%w: not a JSON object", ErrModelOutputUnusable)
	}

	symbolIn := firstString(payload, "simbolo", "symbol", "ticker")
	condition, condOK := normalizeCondition(firstString(payload, "condicion", "condition"))
	threshold, thrOK := normalizeThreshold(firstValue(payload, "umbral", "threshold"))

	// The model candidate first, the whole original text second.
	symbol, symOK := s.symbols.Resolve(ctx, symbolIn)
	if !symOK {
		symbol, symOK = s.symbols.Resolve(ctx, text)
	}

	if !symOK {
		return nil, ErrSymbolUnresolvable
	}
	if !condOK || !thrOK {
		return nil, ErrMissingFields
	}
	return &AlertDraft{Symbol: symbol, Condition: condition, Threshold: threshold}, nil
}

func firstString(payload map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := payload[key].(string); ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func firstValue(payload map[string]interface{}, keys ...string) interface{} {
	for _, key := range keys {
		if value, ok := payload[key]; ok && value != nil {
			return value
		}
	}
	return nil
}

// regexDraftStrategy is the deterministic fallback. It works directly
// on the original text and is independent of the model call entirely.
type regexDraftStrategy struct {
	symbols *SymbolUsecase
}

func (s *regexDraftStrategy) name() string { return "regex" }

func (s *regexDraftStrategy) extract(ctx context.Context, text string) (*AlertDraft, error) {
	txt := strings.TrimSpace(text)
	upper := strings.ToUpper(txt)

	candidate := tickerTokenPattern.FindString(upper)
	if candidate == "" {
		candidate = txt
	}
	symbol, ok := s.symbols.Resolve(ctx, candidate)
	if !ok {
		return nil, ErrSymbolUnresolvable
	}

	// Greater and less vocabularies are matched independently; both or
	// neither leaves the condition undetermined.
	greater := greaterHintPattern.MatchString(upper)
	less := lessHintPattern.MatchString(upper)
	if greater == less {
		return nil, ErrMissingFields
	}
	condition := domain.ConditionGreaterThan
	if less {
		condition = domain.ConditionLessThan
	}

	token := numberTokenPattern.FindString(txt)
	if token == "" {
		return nil, ErrMissingFields
	}
	threshold, err := decimal.NewFromString(strings.ReplaceAll(token, ",", "."))
	if err != nil || threshold.IsNegative() {
		return nil, ErrMissingFields
	}

	return &AlertDraft{Symbol: symbol, Condition: condition, Threshold: threshold}, nil
}
