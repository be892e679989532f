// Package middlewarectx содержит HTTP middleware: разбор JWT токена,
// проверку роли и доступа, ограничение частоты запросов и сбор метрик.
//
// Authenticate проверяет JWT из заголовка Authorization или cookie
// access_token и при успехе кладёт в контекст UID пользователя, роль и
// идентификатор сессии. Запрос без токена или с недействительным токеном
// проходит дальше как анонимный; решение о доступе принимает Guard.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/bookkeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// UserUID: ключ UID пользователя в контексте.
	UserUID Key = "user_uid"
	// Role: ключ роли пользователя в контексте.
	Role Key = "role"
	// SessionID: ключ идентификатора сессии в контексте.
	SessionID Key = "session_id"
	// CurrentUser: ключ загруженного *models.User в контексте.
	CurrentUser Key = "user"
)

// TokenCookie имя cookie с токеном доступа.
const TokenCookie = "access_token"

// Authenticate возвращает middleware, разбирающий токен доступа.
func Authenticate(maker jwt.Maker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Authenticate"

			tokenStr := bearerToken(r)
			if tokenStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := maker.ParseToken(tokenStr)
			if err != nil {
				log.With(
					slog.String("op", op),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				).Warn("invalid or expired token", sl.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, Role, claims.Role)
			ctx = context.WithValue(ctx, SessionID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(TokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// UserUIDFrom возвращает UID аутентифицированного пользователя.
func UserUIDFrom(ctx context.Context) (string, bool) {
	uid, ok := ctx.Value(UserUID).(string)
	return uid, ok && uid != ""
}

// SessionIDFrom возвращает идентификатор сессии из токена.
func SessionIDFrom(ctx context.Context) string {
	sid, _ := ctx.Value(SessionID).(string)
	return sid
}

// UserFrom возвращает пользователя, загруженного Guard.
func UserFrom(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(CurrentUser).(*models.User)
	return u, ok && u != nil
}

// WithUser кладёт пользователя в контекст.
func WithUser(ctx context.Context, user *models.User) context.Context {
	ctx = context.WithValue(ctx, CurrentUser, user)
	ctx = context.WithValue(ctx, UserUID, user.UUID)
	return context.WithValue(ctx, Role, user.Role)
}
