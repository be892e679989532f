package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	up   = pingFunc(func(context.Context) error { return nil })
	down = pingFunc(func(context.Context) error { return errors.New("refused") })
)

func TestHealth(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name       string
		db         Pinger
		cache      Pinger
		wantStatus int
		wantBody   string
	}{
		{name: "no storage", wantStatus: http.StatusOK, wantBody: `"storage":"ok"`},
		{name: "storage up", db: up, cache: up, wantStatus: http.StatusOK, wantBody: `"cache":"ok"`},
		{name: "storage down", db: down, wantStatus: http.StatusServiceUnavailable, wantBody: `"storage":"unavailable"`},
		{name: "cache down keeps service up", db: up, cache: down, wantStatus: http.StatusOK, wantBody: `"cache":"unavailable"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			New(log, tt.db, tt.cache).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}
}
