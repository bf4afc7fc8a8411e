package usecase

import (
	"context"

	"github.com/jperaza/finbot/internal/domain"
	"github.com/shopspring/decimal"
)

// ShockUsecase flags short-window moves exceeding configured
// percentage thresholds. The 15m tier is reserved: the cached history
// exposes 1h as its finest horizon, so only the 1h delta is evaluated
// for now.
type ShockUsecase struct {
	prices domain.PriceSource
	thr15m decimal.Decimal
	thr1h  decimal.Decimal
}

func NewShockUsecase(prices domain.PriceSource, thr15m, thr1h float64) *ShockUsecase {
	return &ShockUsecase{
		prices: prices,
		thr15m: decimal.NewFromFloat(thr15m),
		thr1h:  decimal.NewFromFloat(thr1h),
	}
}

func (u *ShockUsecase) LastShock(ctx context.Context, symbol string) domain.ShockEvent {
	changes := u.prices.GetChanges(ctx, symbol)
	var delta15m *decimal.Decimal

	return domain.ShockEvent{
		Symbol:       symbol,
		At:           u.prices.GetPrice(ctx, symbol).CapturedAt,
		Delta15m:     delta15m,
		Delta1h:      changes.H1,
		ThresholdHit: thresholdHit(delta15m, changes.H1, u.thr15m, u.thr1h),
	}
}

// thresholdHit reports which tier an absolute move crossed, finest
// first.
func thresholdHit(d15m, d1h *decimal.Decimal, thr15m, thr1h decimal.Decimal) string {
	if d15m != nil && d15m.Abs().Cmp(thr15m) >= 0 {
		return "15m"
	}
	if d1h != nil && d1h.Abs().Cmp(thr1h) >= 0 {
		return "1h"
	}
	return "none"
}
