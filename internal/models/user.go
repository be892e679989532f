// Package models содержит доменную модель пользователя системы,
// включающую роль, состояние подписки, пробного периода и скидки.
// Структура используется в бизнес‑логике и при работе с хранилищем.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Роли пользователей.
const (
	RoleTrader  = "trader"
	RoleStartup = "startup"
	RoleAdmin   = "admin"
)

// User представляет зарегистрированного пользователя системы.
type User struct {
	UUID               string          `json:"uid"`
	Email              string          `json:"email"`
	Role               string          `json:"role"`
	IsSubscribed       bool            `json:"is_subscribed"`
	SubscriptionPlan   string          `json:"subscription_plan,omitempty"`
	SubscriptionStart  *time.Time      `json:"subscription_start,omitempty"`
	SubscriptionEnd    *time.Time      `json:"subscription_end,omitempty"` // nil: подписка без даты окончания
	IsTrial            bool            `json:"is_trial"`
	TrialEnd           *time.Time      `json:"trial_end,omitempty"`
	DiscountApplied    bool            `json:"discount_applied"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountExpiry     *time.Time      `json:"discount_expiry,omitempty"`
}
