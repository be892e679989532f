// Package initiate реализует HTTP-обработчик начала оплаты подписки.
//
// Handler принимает JSON с кодом тарифа, создаёт транзакцию в платёжном
// шлюзе и возвращает адрес страницы оплаты. Незавершённая оплата
// запоминается в сессии пользователя до возврата на callback.
package initiate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// Request тело запроса.
type Request struct {
	PlanType string `json:"plan_type" validate:"required,max=32"`
}

// Service начинает оплату.
type Service interface {
	Initiate(ctx context.Context, user *models.User, sessionID, planCode string, now time.Time) (*subscription.InitiateResult, error)
}

// Handler отвечает на POST /subscribe/initiate.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		now:      now,
	}
}

// ServeHTTP godoc
// @Summary Начать оплату подписки
// @Description Создаёт транзакцию в Paystack и возвращает адрес страницы оплаты.
// @Tags Subscribe
// @Accept json
// @Produce json
// @Param request body Request true "Тариф"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или тариф"
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse "Шлюз недоступен"
// @Router /subscribe/initiate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe.initiate"
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
	sessionID := middlewarectx.SessionIDFrom(r.Context())
	if sessionID == "" {
		log.Error("session id not found in token")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("session required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	res, err := h.service.Initiate(r.Context(), user, sessionID, req.PlanType, h.now())
	if err != nil {
		log.Error("failed to initiate payment", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("payment initiated", sl.User(user.UUID), slog.String("reference", res.Reference))
	render.JSON(w, r, response.StatusOKWithData(res))
}
