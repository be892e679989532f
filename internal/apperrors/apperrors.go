// Package apperrors содержит категории ошибок прикладного уровня и их
// отображение на HTTP-статусы и сообщения для пользователя.
package apperrors

import (
	"errors"
	"net/http"
)

// Ошибки сценариев оплаты, наград и доступа.
var (
	ErrInvalidPlan         = errors.New("invalid plan")
	ErrGatewayInit         = errors.New("payment gateway initialization failed")
	ErrInvalidReference    = errors.New("invalid payment reference")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrInvalidFileType     = errors.New("invalid file type")
	ErrInsufficientAmount  = errors.New("insufficient amount")
	ErrInsufficientPoints  = errors.New("insufficient points")
	ErrAlreadyRedeemed     = errors.New("discount already redeemed")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrInteractionDisabled = errors.New("subscription required to modify data")
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
)

type category struct {
	err     error
	status  int
	message string
}

var categories = []category{
	{ErrInvalidPlan, http.StatusBadRequest, "Invalid plan selected"},
	{ErrGatewayInit, http.StatusBadGateway, "Failed to initiate payment"},
	{ErrInvalidReference, http.StatusBadRequest, "Invalid payment reference"},
	{ErrVerificationFailed, http.StatusPaymentRequired, "Payment verification failed"},
	{ErrInvalidFileType, http.StatusUnprocessableEntity, "Invalid file type. Please upload PNG, JPG, JPEG, or PDF files only."},
	{ErrInsufficientAmount, http.StatusUnprocessableEntity, "Amount paid is less than required for the selected plan"},
	{ErrInsufficientPoints, http.StatusConflict, "You need at least 100 points to redeem a discount."},
	{ErrAlreadyRedeemed, http.StatusConflict, "You have already redeemed a discount."},
	{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{ErrStorageUnavailable, http.StatusServiceUnavailable, "Service temporarily unavailable"},
	{ErrInteractionDisabled, http.StatusForbidden, "An active subscription or trial is required"},
	{ErrNotFound, http.StatusNotFound, "not found"},
	{ErrInvalidInput, http.StatusBadRequest, "Invalid input"},
}

// HTTPStatus возвращает HTTP-статус для ошибки; для неизвестных ошибок 500.
func HTTPStatus(err error) int {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.status
		}
	}
	return http.StatusInternalServerError
}

// Message возвращает сообщение для пользователя; внутренние детали не раскрываются.
func Message(err error) string {
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.message
		}
	}
	return "An unexpected error occurred"
}
