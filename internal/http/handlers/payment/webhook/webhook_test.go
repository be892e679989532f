package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/paymentprovider"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

const secret = "sk_test_secret"

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) ConfirmWebhook(ctx context.Context, event paymentprovider.WebhookEvent, now time.Time) (*subscription.CallbackResult, error) {
	args := m.Called(ctx, event, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.CallbackResult), args.Error(1)
}

func sign(body string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	charge := `{"event":"charge.success","data":{"status":"success","reference":"ficore_u1_1","amount":100000,"metadata":{"user_uid":"u1","plan_code":"monthly"}}}`
	isCharge := mock.MatchedBy(func(e paymentprovider.WebhookEvent) bool {
		return e.Event == paymentprovider.EventChargeSuccess && e.Data.Reference == "ficore_u1_1"
	})

	tests := []struct {
		name       string
		body       string
		signature  string
		setup      func(m *ServiceMock)
		wantStatus int
	}{
		{
			name:      "charge success",
			body:      charge,
			signature: sign(charge),
			setup: func(m *ServiceMock) {
				m.On("ConfirmWebhook", mock.Anything, isCharge, now).Return(&subscription.CallbackResult{Reference: "ficore_u1_1"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "uppercase signature",
			body:      charge,
			signature: strings.ToUpper(sign(charge)),
			setup: func(m *ServiceMock) {
				m.On("ConfirmWebhook", mock.Anything, isCharge, now).Return(&subscription.CallbackResult{Reference: "ficore_u1_1", AlreadyApplied: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "bad signature",
			body:       charge,
			signature:  sign(charge + " "),
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing signature",
			body:       charge,
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "broken json",
			body:       `{"event":`,
			signature:  sign(`{"event":`),
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "ignored event",
			body:      `{"event":"transfer.success","data":{}}`,
			signature: sign(`{"event":"transfer.success","data":{}}`),
			setup: func(m *ServiceMock) {
				m.On("ConfirmWebhook", mock.Anything, mock.Anything, now).Return(nil, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:      "foreign reference",
			body:      charge,
			signature: sign(charge),
			setup: func(m *ServiceMock) {
				m.On("ConfirmWebhook", mock.Anything, isCharge, now).Return(nil, fmt.Errorf("x: %w", apperrors.ErrInvalidReference))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:      "storage failure is retried",
			body:      charge,
			signature: sign(charge),
			setup: func(m *ServiceMock) {
				m.On("ConfirmWebhook", mock.Anything, isCharge, now).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(log, svc, secret, func() time.Time { return now })

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set(SignatureHeader, tt.signature)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
