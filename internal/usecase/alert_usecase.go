package usecase

import (
	"context"

	"github.com/jperaza/finbot/internal/domain"
	"go.uber.org/zap"
)

// AlertUsecase turns free text into persisted alerts by running the
// draft strategy chain, and answers alert listings for a chat.
type AlertUsecase struct {
	alerts     domain.AlertRepository
	strategies []draftStrategy
	logger     *zap.Logger
}

func NewAlertUsecase(alerts domain.AlertRepository, llm domain.LLMClient, symbols *SymbolUsecase, logger *zap.Logger) *AlertUsecase {
	return &AlertUsecase{
		alerts: alerts,
		strategies: []draftStrategy{
			&llmDraftStrategy{llm: llm, symbols: symbols, logger: logger},
			&regexDraftStrategy{symbols: symbols},
		},
		logger: logger,
	}
}

// CreateFromText runs the strategies in order and persists the first
// complete draft. No partial alert is ever written: either all three
// fields survived normalization and resolution, or the parse fails
// with the last strategy's verdict.
func (u *AlertUsecase) CreateFromText(ctx context.Context, chatID int64, text string) (*domain.Alert, error) {
	var lastErr error
	for _, strategy := range u.strategies {
		draft, err := strategy.extract(ctx, text)
		if err != nil {
			u.logger.Debug(
				"draft strategy failed",
				zap.String("strategy", strategy.name()),
				zap.Error(err),
			)
			lastErr = err
			continue
		}

		alert := &domain.Alert{
			ChatID:    chatID,
			Symbol:    draft.Symbol,
			Condition: draft.Condition,
			Threshold: draft.Threshold.String(),
		}
		if err := u.alerts.Create(ctx, alert); err != nil {
			return nil, err
		}
		u.logger.Info(
			"alert created",
			zap.Uint("alert_id", alert.ID),
			zap.String("symbol", alert.Symbol),
			zap.String("condition", string(alert.Condition)),
			zap.String("threshold", alert.Threshold),
		)
		return alert, nil
	}

	if lastErr == nil {
		lastErr = ErrMissingFields
	}
	return nil, lastErr
}

func (u *AlertUsecase) ListByChat(ctx context.Context, chatID int64) ([]domain.Alert, error) {
	return u.alerts.ListByChat(ctx, chatID)
}
