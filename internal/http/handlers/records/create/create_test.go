package create

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
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) CreateRecord(ctx context.Context, user *models.User, req models.DummyRecord, now time.Time) (*models.Record, error) {
	args := m.Called(ctx, user, req, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Record), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	user := &models.User{UUID: "u1", Role: models.RoleTrader, IsSubscribed: true}
	isSale := mock.MatchedBy(func(req models.DummyRecord) bool { return req.Type == models.TypeSale })

	tests := []struct {
		name       string
		body       string
		setup      func(m *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name: "sale created",
			body: `{"type":"sale","name":"Bread","amount":"1500"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateRecord", mock.Anything, user, isSale, now).
					Return(&models.Record{ID: 11, UserUID: "u1", Type: models.TypeSale, Name: "Bread"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"id":11`,
		},
		{
			name:       "invalid json",
			body:       `not json`,
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name:       "unknown type",
			body:       `{"type":"loan"}`,
			setup:      func(_ *ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Type must be one of",
		},
		{
			name: "interaction disabled",
			body: `{"type":"sale","amount":"10"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateRecord", mock.Anything, user, isSale, now).
					Return(nil, fmt.Errorf("records.CreateRecord: %w", apperrors.ErrInteractionDisabled))
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name: "negative amount",
			body: `{"type":"sale","amount":"-1"}`,
			setup: func(m *ServiceMock) {
				m.On("CreateRecord", mock.Anything, user, isSale, now).
					Return(nil, fmt.Errorf("records.CreateRecord: %w", apperrors.ErrInvalidInput))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   "Invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(log, svc, func() time.Time { return now })

			req := httptest.NewRequest(http.MethodPost, "/api/v1/records", strings.NewReader(tt.body))
			req = req.WithContext(middlewarectx.WithUser(req.Context(), user))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
