package initiate

import (
	"context"
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
	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Initiate(ctx context.Context, user *models.User, sessionID, planCode string, now time.Time) (*subscription.InitiateResult, error) {
	args := m.Called(ctx, user, sessionID, planCode, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*subscription.InitiateResult), args.Error(1)
}

func TestInitiateHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	user := &models.User{UUID: "u1", Email: "a@b.c", Role: models.RoleTrader}

	tests := []struct {
		name       string
		body       string
		sessionID  string
		setup      func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:      "success",
			body:      `{"plan_type":"monthly"}`,
			sessionID: "sid",
			setup: func(m *ServiceMock) {
				m.On("Initiate", mock.Anything, user, "sid", "monthly", now).
					Return(&subscription.InitiateResult{AuthorizationURL: "https://pay/x", Reference: "ficore_u1_1"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"authorization_url":"https://pay/x"`,
		},
		{
			name:       "bad json",
			body:       `{`,
			sessionID:  "sid",
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing plan",
			body:       `{}`,
			sessionID:  "sid",
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "PlanType is a required field",
		},
		{
			name:       "no session",
			body:       `{"plan_type":"monthly"}`,
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:      "unknown plan",
			body:      `{"plan_type":"weekly"}`,
			sessionID: "sid",
			setup: func(m *ServiceMock) {
				m.On("Initiate", mock.Anything, user, "sid", "weekly", now).
					Return(nil, fmt.Errorf("subscription.Initiate: %w", apperrors.ErrInvalidPlan))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid plan selected",
		},
		{
			name:      "gateway down",
			body:      `{"plan_type":"monthly"}`,
			sessionID: "sid",
			setup: func(m *ServiceMock) {
				m.On("Initiate", mock.Anything, user, "sid", "monthly", now).
					Return(nil, fmt.Errorf("subscription.Initiate: %w: %w", apperrors.ErrGatewayInit, context.DeadlineExceeded))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   "Failed to initiate payment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(log, svc, func() time.Time { return now })

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscribe/initiate", strings.NewReader(tt.body))
			ctx := middlewarectx.WithUser(req.Context(), user)
			if tt.sessionID != "" {
				ctx = context.WithValue(ctx, middlewarectx.SessionID, tt.sessionID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
