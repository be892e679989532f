// Package callback подтверждает оплату после возврата пользователя из шлюза.
package callback

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// Service подтверждает оплату.
type Service interface {
	HandleCallback(ctx context.Context, user *models.User, sessionID, reference string, now time.Time) (*subscription.CallbackResult, error)
}

// Handler отвечает на GET /subscribe/callback.
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
// @Summary Подтвердить оплату
// @Description Проверяет транзакцию в Paystack и продлевает подписку.
// @Description Повторный вызов с тем же reference подписку не продлевает.
// @Tags Subscribe
// @Produce json
// @Param reference query string true "Reference транзакции"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Reference не совпадает с начатой оплатой"
// @Failure 401 {object} response.ErrorResponse
// @Failure 402 {object} response.ErrorResponse "Оплата не подтверждена"
// @Router /subscribe/callback [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe.callback"
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

	reference := r.URL.Query().Get("reference")
	res, err := h.service.HandleCallback(r.Context(), user, middlewarectx.SessionIDFrom(r.Context()), reference, h.now())
	if err != nil {
		log.Error("payment callback failed", sl.User(user.UUID), slog.String("reference", reference), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("payment confirmed", sl.User(user.UUID), slog.String("reference", reference), slog.Bool("already_applied", res.AlreadyApplied))
	render.JSON(w, r, response.StatusOKWithData(res))
}
