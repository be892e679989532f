// Package upload реализует загрузку квитанции о банковском переводе.
//
// Форма multipart: plan_type, amount_paid, payment_date (YYYY-MM-DD)
// и файл receipt (PNG, JPG, JPEG или PDF).
package upload

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// MaxUploadSize предел размера формы.
const MaxUploadSize = 10 << 20

const dateLayout = "2006-01-02"

// Form поля формы загрузки.
type Form struct {
	PlanType    string `validate:"required,max=32"`
	AmountPaid  string `validate:"required,max=32"`
	PaymentDate string `validate:"required,datetime=2006-01-02"`
}

// Service сохраняет квитанцию.
type Service interface {
	UploadReceipt(ctx context.Context, user *models.User, up subscription.Upload, now time.Time) (*models.PaymentReceipt, error)
}

// Handler отвечает на POST /subscribe/upload-receipt.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	now      func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, now func() time.Time) *Handler {
	validate := validator.New()
	// В v9 нет встроенного тега datetime.
	_ = validate.RegisterValidation("datetime", validDatetime)
	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
		now:      now,
	}
}

// validDatetime проверяет, что строка разбирается по раскладке из параметра тега.
func validDatetime(fl validator.FieldLevel) bool {
	_, err := time.Parse(fl.Param(), fl.Field().String())
	return err == nil
}

// ServeHTTP godoc
// @Summary Загрузить квитанцию
// @Description Принимает квитанцию о переводе для ручной проверки.
// @Tags Subscribe
// @Accept multipart/form-data
// @Produce json
// @Param plan_type formData string true "Тариф"
// @Param amount_paid formData string true "Оплаченная сумма"
// @Param payment_date formData string true "Дата оплаты, YYYY-MM-DD"
// @Param receipt formData file true "Файл квитанции"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse "Неверный тип файла или сумма меньше цены тарифа"
// @Failure 429 {object} response.ErrorResponse
// @Router /subscribe/upload-receipt [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.subscribe.upload"
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

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := Form{
		PlanType:    r.FormValue("plan_type"),
		AmountPaid:  r.FormValue("amount_paid"),
		PaymentDate: r.FormValue("payment_date"),
	}
	if err := h.validate.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid form"))
		return
	}

	amount, err := decimal.NewFromString(form.AmountPaid)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("amount_paid must be a number"))
		return
	}
	paymentDate, err := time.Parse(dateLayout, form.PaymentDate)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("payment_date must be YYYY-MM-DD"))
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		log.Warn("receipt file missing", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("receipt file is required"))
		return
	}
	defer file.Close()

	receipt, err := h.service.UploadReceipt(r.Context(), user, subscription.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
		PlanType:    form.PlanType,
		AmountPaid:  amount,
		PaymentDate: paymentDate,
	}, h.now())
	if err != nil {
		log.Error("failed to upload receipt", sl.User(user.UUID), sl.Err(err))
		response.Fail(w, r, err)
		return
	}

	log.Info("receipt uploaded", sl.User(user.UUID), slog.Int64("receipt_id", receipt.ID))
	render.JSON(w, r, response.StatusOKWithData(receipt))
}
