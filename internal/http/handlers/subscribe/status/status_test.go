package status

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

func TestStatusHandler(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	trialEnd := now.Add(48 * time.Hour)
	h := New(log, func() time.Time { return now })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscribe/status", nil)
	req = req.WithContext(middlewarectx.WithUser(req.Context(), &models.User{
		UUID: "u1", Role: models.RoleTrader, IsTrial: true, TrialEnd: &trialEnd,
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_trial_active":true`)
	assert.Contains(t, rec.Body.String(), `"can_interact":true`)
	assert.Contains(t, rec.Body.String(), `"show_banner":false`)
}
