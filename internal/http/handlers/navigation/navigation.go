// Package navigation отдаёт меню инструментов и навигации для роли пользователя.
package navigation

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	nav "github.com/magabrotheeeer/bookkeeper/internal/navigation"
)

// Menus возвращает меню для роли.
type Menus interface {
	For(role string) nav.Menu
}

// Handler отвечает на GET /navigation.
type Handler struct {
	log   *slog.Logger
	menus Menus
}

// New создаёт Handler.
func New(log *slog.Logger, menus Menus) *Handler {
	return &Handler{log: log, menus: menus}
}

// ServeHTTP godoc
// @Summary Меню пользователя
// @Description Инструменты и пункты навигации для роли текущего пользователя.
// @Tags Navigation
// @Produce json
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /navigation [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.navigation"
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
	render.JSON(w, r, response.StatusOKWithData(h.menus.For(user.Role)))
}
