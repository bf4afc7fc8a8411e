package domain

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("not found")

type AlertRepository interface {
	Create(ctx context.Context, alert *Alert) error
	ListPending(ctx context.Context) ([]Alert, error)
	ListByChat(ctx context.Context, chatID int64) ([]Alert, error)
	// MarkNotified flips the notified flag for a still-pending alert.
	// Returns ErrNotFound when the alert is missing or already notified,
	// so concurrent callers cannot both win the transition.
	MarkNotified(ctx context.Context, alertID uint) error
}
