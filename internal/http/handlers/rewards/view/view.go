// Package view засчитывает день активности и отдаёт состояние наград.
package view

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
	"github.com/magabrotheeeer/bookkeeper/internal/services/rewards"
)

// Service засчитывает день активности.
type Service interface {
	Evaluate(ctx context.Context, userUID string, now time.Time) (*models.RewardState, error)
}

// Rewards тело ответа.
type Rewards struct {
	Streak         int  `json:"streak"`
	Points         int  `json:"points"`
	RedeemCost     int  `json:"redeem_cost"`
	CanRedeem      bool `json:"can_redeem"`
	DiscountActive bool `json:"discount_active"`
}

// Handler отвечает на GET /rewards.
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
// @Summary Награды
// @Description Засчитывает сегодняшнюю активность и возвращает серию и баллы.
// @Tags Rewards
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /rewards [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rewards.view"
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

	now := h.now()
	state, err := h.service.Evaluate(r.Context(), user.UUID, now)
	if err != nil {
		log.Error("failed to evaluate rewards", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	discountActive := user.DiscountApplied && user.DiscountExpiry != nil && user.DiscountExpiry.After(now)
	render.JSON(w, r, response.StatusOKWithData(Rewards{
		Streak:         state.Streak,
		Points:         state.Points,
		RedeemCost:     rewards.RedeemCost,
		CanRedeem:      state.Points >= rewards.RedeemCost && !user.DiscountApplied,
		DiscountActive: discountActive,
	}))
}
