package view

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) Evaluate(ctx context.Context, userUID string, now time.Time) (*models.RewardState, error) {
	args := m.Called(ctx, userUID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardState), args.Error(1)
}

func TestRewardsView(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(24 * time.Hour)

	tests := []struct {
		name       string
		user       *models.User
		state      *models.RewardState
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "can redeem",
			user:       &models.User{UUID: "u1"},
			state:      &models.RewardState{Streak: 10, Points: 100},
			wantStatus: http.StatusOK,
			wantBody:   `"points":100,"redeem_cost":100,"can_redeem":true,"discount_active":false`,
		},
		{
			name:       "discount already applied",
			user:       &models.User{UUID: "u1", DiscountApplied: true, DiscountExpiry: &expiry},
			state:      &models.RewardState{Streak: 1, Points: 150},
			wantStatus: http.StatusOK,
			wantBody:   `"can_redeem":false,"discount_active":true`,
		},
		{
			name:       "storage down",
			user:       &models.User{UUID: "u1"},
			err:        apperrors.ErrStorageUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `"error":"Service temporarily unavailable"`,
		},
		{
			name:       "unexpected error",
			user:       &models.User{UUID: "u1"},
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"error":"An unexpected error occurred"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			if tt.state != nil {
				svc.On("Evaluate", mock.Anything, tt.user.UUID, now).Return(tt.state, nil)
			} else {
				svc.On("Evaluate", mock.Anything, tt.user.UUID, now).Return(nil, tt.err)
			}
			h := New(log, svc, func() time.Time { return now })

			req := httptest.NewRequest(http.MethodGet, "/api/v1/rewards", nil)
			req = req.WithContext(middlewarectx.WithUser(req.Context(), tt.user))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
