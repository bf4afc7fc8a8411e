package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Notifier interface {
	Notify(chatID int64, text string) error
}

// AlertChecker evaluates pending alerts against cached prices on a
// fixed interval and notifies each alert at most once. Ticks never
// overlap; a tick still running when the next fires makes the next one
// a no-op.
type AlertChecker struct {
	alerts   domain.AlertRepository
	prices   domain.PriceSource
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger

	runner *cron.Cron
}

func NewAlertChecker(alerts domain.AlertRepository, prices domain.PriceSource, notifier Notifier, interval time.Duration, logger *zap.Logger) *AlertChecker {
	return &AlertChecker{
		alerts:   alerts,
		prices:   prices,
		notifier: notifier,
		interval: interval,
		logger:   logger,
	}
}

type cronZapLogger struct {
	logger *zap.Logger
}

func (l cronZapLogger) Printf(format string, args ...interface{}) {
	l.logger.Sugar().Infof(format, args...)
}

func (c *AlertChecker) Start(ctx context.Context) error {
	runner := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.PrintfLogger(cronZapLogger{logger: c.logger})),
	))
	_, err := runner.AddFunc(fmt.Sprintf("@every %s", c.interval), func() {
		c.CheckOnce(ctx)
	})
	if err != nil {
		return err
	}
	runner.Start()
	c.runner = runner
	c.logger.Info("alert checker started", zap.Duration("interval", c.interval))
	return nil
}

func (c *AlertChecker) Stop() {
	if c.runner != nil {
		<-c.runner.Stop().Done()
	}
}

// CheckOnce runs a single evaluation cycle. One alert's failure never
// aborts the rest of the batch.
func (c *AlertChecker) CheckOnce(ctx context.Context) {
	pending, err := c.alerts.ListPending(ctx)
	if err != nil {
		c.logger.Error("failed to load pending alerts", zap.Error(err))
		return
	}

	for _, alert := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}
		c.evaluate(ctx, alert)
	}
}

func (c *AlertChecker) evaluate(ctx context.Context, alert domain.Alert) {
	threshold, err := decimal.NewFromString(alert.Threshold)
	if err != nil {
		c.logger.Warn("invalid threshold on alert", zap.Uint("alert_id", alert.ID), zap.Error(err))
		return
	}

	snap := c.prices.GetPrice(ctx, alert.Symbol)
	if snap.Price == nil {
		// Temporarily unknown; retried next cycle.
		c.logger.Debug("price unavailable", zap.String("symbol", alert.Symbol))
		return
	}

	if !shouldNotify(alert.Condition, *snap.Price, threshold) {
		return
	}

	text := fmt.Sprintf(
		"Alert #%d triggered: %s %s %s (price %s)",
		alert.ID, alert.Symbol, comparatorGlyph(alert.Condition), alert.Threshold, snap.Price.Round(2),
	)
	if err := c.notifier.Notify(alert.ChatID, text); err != nil {
		// Stays pending; a duplicate send is possible only if the flip
		// below fails after a send succeeded.
		c.logger.Warn("failed to send alert", zap.Uint("alert_id", alert.ID), zap.Error(err))
		return
	}

	if err := c.alerts.MarkNotified(ctx, alert.ID); err != nil {
		c.logger.Error("failed to mark alert notified", zap.Uint("alert_id", alert.ID), zap.Error(err))
	}
}

// shouldNotify applies the strict inequality: equality never fires.
func shouldNotify(condition domain.Condition, price, threshold decimal.Decimal) bool {
	cmp := price.Cmp(threshold)
	switch condition {
	case domain.ConditionGreaterThan:
		return cmp > 0
	case domain.ConditionLessThan:
		return cmp < 0
	default:
		return false
	}
}

func comparatorGlyph(condition domain.Condition) string {
	if condition == domain.ConditionLessThan {
		return "<"
	}
	return ">"
}
