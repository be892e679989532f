// Package webhook принимает события Paystack.
//
// Подпись проверяется по заголовку x-paystack-signature (HMAC-SHA512 тела
// секретным ключом). Событие charge.success продлевает подписку так же,
// как callback; повторная доставка подписку не продлевает.
package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/paymentprovider"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// SignatureHeader заголовок с подписью тела.
const SignatureHeader = "x-paystack-signature"

const maxBodySize = 1 << 20

// Service обрабатывает событие с проверенной подписью.
type Service interface {
	ConfirmWebhook(ctx context.Context, event paymentprovider.WebhookEvent, now time.Time) (*subscription.CallbackResult, error)
}

// Handler отвечает на POST /payments/webhook.
type Handler struct {
	log     *slog.Logger
	service Service
	secret  string
	now     func() time.Time
}

// New создаёт Handler. secret: секретный ключ Paystack.
func New(log *slog.Logger, service Service, secret string, now func() time.Time) *Handler {
	return &Handler{
		log:     log,
		service: service,
		secret:  secret,
		now:     now,
	}
}

// ServeHTTP godoc
// @Summary Webhook Paystack
// @Tags Payments
// @Accept json
// @Param x-paystack-signature header string true "HMAC-SHA512 тела"
// @Success 200
// @Failure 400
// @Failure 401
// @Failure 500
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if !paymentprovider.VerifySignature(h.secret, body, r.Header.Get(SignatureHeader)) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var event paymentprovider.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	res, err := h.service.ConfirmWebhook(r.Context(), event, h.now())
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrInvalidReference),
		errors.Is(err, apperrors.ErrInvalidPlan),
		errors.Is(err, apperrors.ErrVerificationFailed):
		// повторная доставка того же события ничего не изменит
		log.Warn("webhook event rejected", slog.String("event", event.Event), sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	default:
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if res == nil {
		log.Info("ignored webhook event", slog.String("event", event.Event))
	} else {
		log.Info("webhook processed successfully",
			slog.String("event", event.Event),
			slog.String("reference", res.Reference),
			slog.Bool("already_applied", res.AlreadyApplied),
		)
	}
	w.WriteHeader(http.StatusOK)
}
