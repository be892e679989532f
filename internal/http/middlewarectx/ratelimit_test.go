package middlewarectx_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
)

func TestUserRateLimiter_PerUser(t *testing.T) {
	l := middlewarectx.NewUserRateLimiter(3)
	for i := 0; i < 3; i++ {
		assert.True(t, l.Allow("u1"))
	}
	assert.False(t, l.Allow("u1"))
	assert.True(t, l.Allow("u2"))
}

func TestUserRateLimiter_Middleware(t *testing.T) {
	l := middlewarectx.NewUserRateLimiter(1)
	h := l.Middleware(newNoopLogger())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(uid string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/subscribe/initiate", nil)
		if uid != "" {
			req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserUID, uid))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("u1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u1"))
	assert.Equal(t, http.StatusOK, do("u2"))
	// анонимные запросы считаются по адресу клиента
	assert.Equal(t, http.StatusOK, do(""))
	assert.Equal(t, http.StatusTooManyRequests, do(""))
}
