// Package weeklyprofit отдаёт прибыль за последние семь суток для графика.
package weeklyprofit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/services/dashboard"
)

// Service строит ряд прибыли.
type Service interface {
	WeeklyProfitSeries(ctx context.Context, userUID string, now time.Time) []dashboard.DayProfit
}

// Handler отвечает на GET /dashboard/weekly-profit.
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
// @Summary Прибыль за неделю
// @Description Семь значений прибыли (продажи минус расходы) по UTC-суткам, от старых к новым.
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /dashboard/weekly-profit [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.weeklyprofit"

	uid, ok := middlewarectx.UserUIDFrom(r.Context())
	if !ok {
		h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		).Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	series := h.service.WeeklyProfitSeries(r.Context(), uid, h.now())
	render.JSON(w, r, response.StatusOKWithData(series))
}
