// Package redeem реализует обмен баллов на скидку.
//
// Повтор запроса с тем же заголовком Idempotency-Key возвращает исходный
// результат и баллы повторно не списывает. Без заголовка ключ генерируется,
// и такой запрос повтором не считается.
package redeem

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// IdempotencyHeader заголовок с ключом повтора.
const IdempotencyHeader = "Idempotency-Key"

const maxKeyLen = 64

// Service обменивает баллы.
type Service interface {
	Redeem(ctx context.Context, userUID, requestID string, now time.Time) (*models.RedemptionResult, error)
}

// Handler отвечает на POST /rewards/redeem.
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
// @Summary Обменять баллы на скидку
// @Description Списывает 100 баллов и выдаёт скидку 30% на 30 дней.
// @Tags Rewards
// @Produce json
// @Param Idempotency-Key header string false "Ключ повтора запроса"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Недостаточно баллов или скидка уже получена"
// @Router /rewards/redeem [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rewards.redeem"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	uid, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	key := r.Header.Get(IdempotencyHeader)
	if len(key) > maxKeyLen {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("idempotency key is too long"))
		return
	}
	if key == "" {
		key = uuid.NewString()
	}

	res, err := h.service.Redeem(r.Context(), uid, key, h.now())
	if err != nil {
		log.Warn("redeem failed", sl.User(uid), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("points redeemed", sl.User(uid), slog.Bool("replayed", res.Replayed))
	render.JSON(w, r, response.StatusOKWithData(res))
}
