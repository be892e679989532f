package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы загруженной квитанции.
const (
	ReceiptPending  = "pending"
	ReceiptApproved = "approved"
	ReceiptRejected = "rejected"
)

// PendingTransaction незавершённая оплата, хранится в сессии пользователя.
type PendingTransaction struct {
	Reference string `json:"reference"`
	PlanCode  string `json:"plan_code"`
	Amount    int64  `json:"amount"`
}

// SubscriptionActivation данные для продления подписки после подтверждённой оплаты.
type SubscriptionActivation struct {
	Reference string
	UserUID   string
	PlanCode  string
	Amount    int64
	Start     time.Time
	End       time.Time
}

// PaymentReceipt квитанция ручной оплаты, ожидающая проверки администратором.
type PaymentReceipt struct {
	ID          int64           `json:"id"`
	UserUID     string          `json:"user_uid"`
	Filename    string          `json:"filename"`
	FilePath    string          `json:"file_path"`
	PlanType    string          `json:"plan_type"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	PaymentDate time.Time       `json:"payment_date"`
	Status      string          `json:"status"`
	UploadedAt  time.Time       `json:"uploaded_at"`
}

// AuditLog запись журнала аудита.
type AuditLog struct {
	Actor     string         `json:"actor"`
	Action    string         `json:"action"`
	Details   map[string]any `json:"details"`
	CreatedAt time.Time      `json:"created_at"`
}
