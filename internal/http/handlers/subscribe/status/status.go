// Package status отдаёт состояние подписки и пробного периода пользователя.
package status

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// Handler отвечает на GET /subscribe/status.
type Handler struct {
	log *slog.Logger
	now func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, now func() time.Time) *Handler {
	return &Handler{log: log, now: now}
}

// ServeHTTP godoc
// @Summary Состояние подписки
// @Tags Subscribe
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /subscribe/status [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe.status"

	user, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		h.log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		).Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(subscription.StatusOf(user, h.now())))
}
