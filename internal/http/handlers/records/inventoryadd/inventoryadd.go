// Package inventoryadd добавляет товарную позицию.
package inventoryadd

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
)

// Service добавляет товар.
type Service interface {
	AddInventory(ctx context.Context, user *models.User, req models.DummyInventory, now time.Time) (*models.Record, error)
}

// Handler отвечает на POST /inventory.
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
// @Summary Добавить товар
// @Description Себестоимость и ожидаемая наценка не могут быть отрицательными.
// @Tags Inventory
// @Accept json
// @Produce json
// @Param request body models.DummyInventory true "Товар"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /inventory [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.inventoryadd"
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

	var req models.DummyInventory
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

	item, err := h.service.AddInventory(r.Context(), user, req, h.now())
	if err != nil {
		log.Error("failed to add inventory", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("inventory item added", sl.User(user.UUID), slog.Int64("id", item.ID))
	render.JSON(w, r, response.StatusOKWithData(item))
}
