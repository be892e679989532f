package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Типы финансовых записей (таблица records).
const (
	TypeDebtor    = "debtor"
	TypeCreditor  = "creditor"
	TypeSale      = "sale"
	TypeExpense   = "expense"
	TypeFund      = "fund"
	TypeInventory = "inventory"
	TypeForecast  = "forecast"
)

// Типы движений денежных средств (таблица cashflows).
const (
	TypePayment = "payment"
	TypeReceipt = "receipt"
)

// StatusPaid отмечает погашенный долг у дебитора/кредитора.
const StatusPaid = "paid"

// Collection: таблица хранилища записей.
type Collection string

const (
	// Records: финансовые позиции.
	Records Collection = "records"
	// Cashflows: фактические платежи и поступления.
	Cashflows Collection = "cashflows"
)

// Record финансовая запись пользователя. Набор заполненных полей зависит от типа:
// AmountOwed у дебиторов/кредиторов, ProjectedRevenue у прогнозов,
// Cost и ExpectedMargin у товарных запасов.
type Record struct {
	ID               int64            `json:"id"`
	UserUID          string           `json:"user_uid"`
	Type             string           `json:"type"`
	Name             string           `json:"name,omitempty"`
	Description      string           `json:"description,omitempty"`
	Contact          string           `json:"contact,omitempty"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	AmountOwed       *decimal.Decimal `json:"amount_owed,omitempty"`
	ProjectedRevenue *decimal.Decimal `json:"projected_revenue,omitempty"`
	Cost             *decimal.Decimal `json:"cost,omitempty"`
	ExpectedMargin   *decimal.Decimal `json:"expected_margin,omitempty"`
	Status           string           `json:"status,omitempty"`
	ReminderDate     *time.Time       `json:"reminder_date,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// Cashflow фактическое движение денег: платёж или поступление.
type Cashflow struct {
	ID          int64           `json:"id"`
	UserUID     string          `json:"user_uid"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DummyRecord используется для приёма данных записи из JSON-запроса.
type DummyRecord struct {
	Type             string           `json:"type" validate:"required,oneof=debtor creditor sale expense fund forecast"`
	Name             string           `json:"name" validate:"max=100"`
	Description      string           `json:"description" validate:"max=500"`
	Contact          string           `json:"contact" validate:"max=50"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	AmountOwed       *decimal.Decimal `json:"amount_owed,omitempty"`
	ProjectedRevenue *decimal.Decimal `json:"projected_revenue,omitempty"`
	Status           string           `json:"status" validate:"max=20"`
	ReminderDate     *time.Time       `json:"reminder_date,omitempty"`
}

// DummyCashflow используется для приёма платежа/поступления из JSON-запроса.
type DummyCashflow struct {
	Type        string          `json:"type" validate:"required,oneof=payment receipt"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=500"`
}

// DummyInventory используется для приёма товарной позиции из JSON-запроса.
type DummyInventory struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Cost           decimal.Decimal `json:"cost"`
	ExpectedMargin decimal.Decimal `json:"expected_margin"`
}
