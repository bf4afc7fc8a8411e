package db

import "time"

type alertModel struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"not null"`
	Symbol    string `gorm:"index;not null"`
	Condition string `gorm:"not null"`
	Threshold string `gorm:"not null"`
	Notified  bool   `gorm:"index;not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (alertModel) TableName() string {
	return "alerts"
}
