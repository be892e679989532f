package paymentprovider

import "encoding/json"

// InitializeRequest запрос на создание транзакции. Amount в минимальных
// единицах валюты (kobo).
type InitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// InitializeResponse ответ шлюза на создание транзакции.
type InitializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// Transaction данные транзакции из ответа verify и из webhook.
type Transaction struct {
	ID        int64           `json:"id"`
	Status    string          `json:"status"`
	Reference string          `json:"reference"`
	Amount    int64           `json:"amount"`
	Currency  string          `json:"currency"`
	PaidAt    string          `json:"paid_at"`
	Metadata  json.RawMessage `json:"metadata"`
	Customer  struct {
		Email string `json:"email"`
	} `json:"customer"`
}

// Succeeded сообщает, что оплата прошла.
func (t *Transaction) Succeeded() bool {
	return t.Status == StatusSuccess
}

// MetadataValue достаёт строковое поле metadata. Шлюз возвращает metadata
// объектом либо пустой строкой, если она не задавалась.
func (t *Transaction) MetadataValue(key string) string {
	var m map[string]any
	if err := json.Unmarshal(t.Metadata, &m); err != nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

// VerifyResponse ответ шлюза на проверку транзакции.
type VerifyResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    Transaction `json:"data"`
}

// WebhookEvent событие, присылаемое шлюзом на webhook.
type WebhookEvent struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

// StatusSuccess статус успешно оплаченной транзакции.
const StatusSuccess = "success"

// EventChargeSuccess событие успешного списания.
const EventChargeSuccess = "charge.success"
