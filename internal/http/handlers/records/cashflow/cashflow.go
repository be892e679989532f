// Package cashflow принимает платежи и поступления.
package cashflow

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

type Service interface {
	CreateCashflow(ctx context.Context, user *models.User, req models.DummyCashflow, now time.Time) (*models.Cashflow, error)
}

type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		now:      now,
	}
}

// ServeHTTP godoc
// @Summary Создать платёж или поступление
// @Tags Records
// @Accept json
// @Produce json
// @Param request body models.DummyCashflow true "Платёж или поступление"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /cashflows [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.cashflow"
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

	var req models.DummyCashflow
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

	cf, err := h.service.CreateCashflow(r.Context(), user, req, h.now())
	if err != nil {
		log.Error("failed to create cashflow", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(cf))
}
