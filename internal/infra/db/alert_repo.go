package db

import (
	"context"

	"github.com/jperaza/finbot/internal/domain"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.Alert) error {
	model := mapAlertToModel(*alert)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	alert.ID = model.ID
	alert.CreatedAt = model.CreatedAt
	alert.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *AlertRepository) ListPending(ctx context.Context) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("notified = ?", false).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListByChat(ctx context.Context, chatID int64) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("chat_id = ?", chatID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

// MarkNotified is the single legal state transition. The notified guard
// in the WHERE clause makes the flip atomic: of two overlapping callers
// only one sees RowsAffected == 1.
func (r *AlertRepository) MarkNotified(ctx context.Context, alertID uint) error {
	result := r.db.WithContext(ctx).
		Model(&alertModel{}).
		Where("id = ? AND notified = ?", alertID, false).
		Update("notified", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapAlertsToDomain(models []alertModel) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, domain.Alert{
			ID:        model.ID,
			ChatID:    model.ChatID,
			Symbol:    model.Symbol,
			Condition: domain.Condition(model.Condition),
			Threshold: model.Threshold,
			Notified:  model.Notified,
			CreatedAt: model.CreatedAt,
			UpdatedAt: model.UpdatedAt,
		})
	}
	return alerts
}

func mapAlertToModel(alert domain.Alert) alertModel {
	return alertModel{
		ID:        alert.ID,
		ChatID:    alert.ChatID,
		Symbol:    alert.Symbol,
		Condition: string(alert.Condition),
		Threshold: alert.Threshold,
		Notified:  alert.Notified,
		CreatedAt: alert.CreatedAt,
		UpdatedAt: alert.UpdatedAt,
	}
}
