package models

import "time"

// RewardState счётчики вовлечённости пользователя: серия дней подряд
// с учётными действиями и накопленные баллы.
type RewardState struct {
	UserUID          string     `json:"user_uid"`
	Streak           int        `json:"streak"`
	Points           int        `json:"points"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty"` // начало UTC-суток
}

// RedemptionResult итог обмена баллов на скидку.
type RedemptionResult struct {
	RequestID          string    `json:"request_id"`
	PointsSpent        int       `json:"points_spent"`
	RemainingPoints    int       `json:"remaining_points"`
	DiscountPercentage int       `json:"discount_percentage"`
	DiscountExpiry     time.Time `json:"discount_expiry"`
	Replayed           bool      `json:"replayed"`
}
