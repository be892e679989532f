package weeklyprofit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/services/dashboard"
)

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) WeeklyProfitSeries(ctx context.Context, userUID string, now time.Time) []dashboard.DayProfit {
	return m.Called(ctx, userUID, now).Get(0).([]dashboard.DayProfit)
}

func TestWeeklyProfitHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	svc := new(ServiceMock)
	svc.On("WeeklyProfitSeries", mock.Anything, "u1", now).Return([]dashboard.DayProfit{
		{Label: "Mon", Date: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), Profit: decimal.NewFromInt(300)},
	})
	h := New(log, svc, func() time.Time { return now })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/weekly-profit", nil)
	req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, "u1"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"label":"Mon"`)
	assert.Contains(t, rec.Body.String(), `"profit":"300"`)
	svc.AssertExpectations(t)
}

func TestWeeklyProfitHandler_Unauthorized(t *testing.T) {
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), new(ServiceMock), time.Now)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard/weekly-profit", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
