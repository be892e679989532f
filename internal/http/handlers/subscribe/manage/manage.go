// Package manage отдаёт реквизиты для ручной оплаты и загруженные квитанции.
package manage

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// Service описывает данные страницы управления подпиской.
type Service interface {
	BankDetails() config.BankDetails
	Plans() []config.Plan
	ListReceipts(ctx context.Context, userUID string) ([]models.PaymentReceipt, error)
}

// Page тело ответа.
type Page struct {
	Status      subscription.Status     `json:"status"`
	BankDetails config.BankDetails      `json:"bank_details"`
	Plans       []config.Plan           `json:"plans"`
	Receipts    []models.PaymentReceipt `json:"receipts"`
}

// Handler отвечает на GET /subscribe/manage.
type Handler struct {
	log     *slog.Logger
	service Service
	now     func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	return &Handler{log: log, service: service, now: now}
}

// ServeHTTP godoc
// @Summary Управление подпиской
// @Description Реквизиты для перевода, тарифы и квитанции пользователя (новые первыми).
// @Tags Subscribe
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /subscribe/manage [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe.manage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	receipts, err := h.service.ListReceipts(r.Context(), user.UUID)
	if err != nil {
		log.Error("failed to list receipts", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Page{
		Status:      subscription.StatusOf(user, h.now()),
		BankDetails: h.service.BankDetails(),
		Plans:       h.service.Plans(),
		Receipts:    receipts,
	}))
}
