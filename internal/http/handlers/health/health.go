// Package health реализует проверку живости сервиса, доступности хранилища
// и кэша сессий оплаты.
package health

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
)

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler отвечает на запросы /health.
type Handler struct {
	log   *slog.Logger
	db    Pinger
	cache Pinger
}

// New создаёт Handler. Нулевые db и cache не проверяются.
// Недоступный кэш не переводит сервис в 503: без него не работает только оплата через шлюз.
func New(log *slog.Logger, db, cache Pinger) *Handler {
	return &Handler{
		log:   log,
		db:    db,
		cache: cache,
	}
}

// ServeHTTP godoc
// @Summary Проверка живости
// @Tags Health
// @Produce json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	log := h.log.With(slog.String("op", op))

	data := map[string]any{
		"status":  "ok",
		"storage": "ok",
	}
	if h.cache != nil {
		data["cache"] = "ok"
		if err := h.cache.Ping(r.Context()); err != nil {
			log.Warn("cache ping failed", sl.Err(err))
			data["cache"] = "unavailable"
		}
	}
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			log.Warn("storage ping failed", sl.Err(err))
			data["storage"] = "unavailable"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}
	render.JSON(w, r, response.StatusOKWithData(data))
}
