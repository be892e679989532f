// Package plans отдаёт список тарифов подписки.
package plans

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
)

// Service возвращает тарифы.
type Service interface {
	Plans() []config.Plan
}

// Handler отвечает на GET /subscribe.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создаёт Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Тарифы подписки
// @Tags Subscribe
// @Produce json
// @Success 200 {object} response.Response
// @Router /subscribe [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"plans": h.service.Plans(),
	}))
}
