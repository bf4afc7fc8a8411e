package domain

import "time"

type Condition string

const (
	ConditionGreaterThan Condition = "greater_than"
	ConditionLessThan    Condition = "less_than"
)

// Alert is a persisted price condition. Notified flips false -> true
// exactly once and never reverts.
type Alert struct {
	ID        uint
	ChatID    int64
	Symbol    string
	Condition Condition
	Threshold string
	Notified  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
