// Package create реализует HTTP-обработчик создания финансовой записи.
//
// Handler принимает JSON-запрос с данными записи, валидирует его и передаёт
// сервису. Изменять данные может только пользователь с действующей подпиской
// или пробным периодом.
package create

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

// Service описывает создание записи.
type Service interface {
	CreateRecord(ctx context.Context, user *models.User, req models.DummyRecord, now time.Time) (*models.Record, error)
}

// Handler управляет HTTP-запросами на создание записей.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис бизнес-логики
	validate *validator.Validate // Валидатор структуры входящих данных
	now      func() time.Time
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		now:      now,
	}
}

// ServeHTTP godoc
// @Summary Создать запись
// @Description Создаёт дебитора, кредитора, продажу, расход, фонд или прогноз.
// @Tags Records
// @Accept json
// @Produce json
// @Param request body models.DummyRecord true "Данные записи"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON или отрицательная сумма"
// @Failure 401 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse "Нет действующей подписки"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /records [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.records.create"
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

	var req models.DummyRecord
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			log.Warn("validation failed", sl.Err(err))
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	rec, err := h.service.CreateRecord(r.Context(), user, req, h.now())
	if err != nil {
		log.Error("failed to create record", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("record created", sl.User(user.UUID), slog.Int64("id", rec.ID), slog.String("type", rec.Type))
	render.JSON(w, r, response.StatusOKWithData(rec))
}
