// Package required отдаёт уведомление о необходимости подписки.
// Сюда ведёт перенаправление от проверки доступа.
package required

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

// Handler отвечает на GET /subscribe/required.
type Handler struct {
	log          *slog.Logger
	service      Service
	subscribeURL string
}

// New создаёт Handler. subscribeURL адрес страницы оформления подписки.
func New(log *slog.Logger, service Service, subscribeURL string) *Handler {
	return &Handler{log: log, service: service, subscribeURL: subscribeURL}
}

// ServeHTTP godoc
// @Summary Требуется подписка
// @Tags Subscribe
// @Produce json
// @Success 200 {object} response.Response
// @Router /subscribe/required [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message":       "Your trial or subscription has expired. Subscribe to continue adding and editing records.",
		"subscribe_url": h.subscribeURL,
		"plans":         h.service.Plans(),
	}))
}
