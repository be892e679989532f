package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/access"
)

// UserLoader загружает пользователя по UID.
type UserLoader interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Guard проверяет доступ к маршрутам и загружает текущего пользователя.
type Guard struct {
	users     UserLoader
	redirects config.Redirects
	now       func() time.Time
	log       *slog.Logger
}

// NewGuard создаёт Guard. now задаёт часы, по которым проверяются сроки.
func NewGuard(users UserLoader, redirects config.Redirects, now func() time.Time, log *slog.Logger) *Guard {
	return &Guard{
		users:     users,
		redirects: redirects,
		now:       now,
		log:       log,
	}
}

// RequireLogin пропускает только аутентифицированных пользователей.
// Роль и срок подписки не проверяются: так устроены страницы оформления подписки.
func (g *Guard) RequireLogin() func(http.Handler) http.Handler {
	return g.require(false)
}

// RequireRole пропускает администраторов и пользователей с ролью из allowed
// и действующей подпиской или пробным периодом. Проверки идут по порядку:
// аутентификация, администратор, роль, срок доступа.
func (g *Guard) RequireRole(allowed ...string) func(http.Handler) http.Handler {
	return g.require(true, allowed...)
}

func (g *Guard) require(checkRole bool, allowed ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Guard"
			log := g.log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			user, err := g.load(r.Context())
			if err != nil {
				log.Error("failed to load user", sl.Err(err))
				response.Fail(w, r, err)
				return
			}

			decision := access.Allow
			if user == nil {
				decision = access.RedirectLogin
			} else if checkRole {
				decision = access.CheckRole(user, g.now(), allowed...)
			}

			switch decision {
			case access.RedirectLogin:
				response.Redirect(w, r, g.redirects.Login, "Please log in to access this page.")
				return
			case access.RedirectDenied:
				log.Warn("role not allowed", sl.User(user.UUID), slog.String("role", user.Role))
				response.Redirect(w, r, g.redirects.Dashboard, "You do not have permission to access this page.")
				return
			case access.RedirectSubscriptionRequired:
				log.Info("paid access expired", sl.User(user.UUID))
				response.Redirect(w, r, g.redirects.SubscriptionRequired, "An active subscription or trial is required.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// load возвращает nil без ошибки, если запрос анонимный или пользователь удалён.
func (g *Guard) load(ctx context.Context) (*models.User, error) {
	uid, ok := UserUIDFrom(ctx)
	if !ok {
		return nil, nil
	}
	user, err := g.users.GetUser(ctx, uid)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
