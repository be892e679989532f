// Package bookkeeper собирает зависимости приложения и регистрирует его маршруты.
package bookkeeper

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/dashboard/summary"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/dashboard/weeklyprofit"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/health"
	navhandler "github.com/magabrotheeeer/bookkeeper/internal/http/handlers/navigation"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/records/cashflow"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/records/create"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/records/inventoryadd"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/records/inventorylist"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/rewards/redeem"
	rewardsview "github.com/magabrotheeeer/bookkeeper/internal/http/handlers/rewards/view"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/callback"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/initiate"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/manage"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/plans"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/required"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/status"
	"github.com/magabrotheeeer/bookkeeper/internal/http/handlers/subscribe/upload"
	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/bookkeeper/internal/metrics"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/navigation"
	"github.com/magabrotheeeer/bookkeeper/internal/services/dashboard"
	"github.com/magabrotheeeer/bookkeeper/internal/services/records"
	"github.com/magabrotheeeer/bookkeeper/internal/services/rewards"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

const apiPrefix = "/api/v1"

// Paths адреса маршрутов по имени пункта меню. Пункты без маршрута получают "#".
var Paths = map[string]string{
	"dashboard.index": apiPrefix + "/dashboard",
	"receipts.index":  apiPrefix + "/cashflows",
	"payments.index":  apiPrefix + "/cashflows",
	"inventory.index": apiPrefix + "/inventory",
	"reports.index":   apiPrefix + "/dashboard/weekly-profit",
}

// Services сервисы, которые обслуживают маршруты.
type Services struct {
	Users        middlewarectx.UserLoader
	Health       health.Pinger
	Cache        health.Pinger
	Dashboard    *dashboard.Service
	Rewards      *rewards.Service
	Subscription *subscription.Service
	Records      *records.Service
	Menus        *navigation.Tables
}

// Deps инфраструктура HTTP-слоя.
type Deps struct {
	Maker    jwt.Maker
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Now      func() time.Time
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services, deps Deps) {
	now := deps.Now
	guard := middlewarectx.NewGuard(svc.Users, cfg.Redirects, now, logger)
	initiateLimit := middlewarectx.NewUserRateLimiter(cfg.RateLimit.InitiatePerMinute)
	uploadLimit := middlewarectx.NewUserRateLimiter(cfg.RateLimit.UploadPerMinute)

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middlewarectx.Metrics(deps.Metrics),
	)

	r.Route(apiPrefix, func(r chi.Router) {
		// Открытые конечные точки
		r.Get("/health", health.New(logger, svc.Health, svc.Cache).ServeHTTP)
		r.Post("/payments/webhook", webhook.New(logger, svc.Subscription, cfg.Paystack.SecretKey, now).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.Authenticate(deps.Maker, logger))

			// Только вход: страницы подписки, просмотр данных и обмен баллов доступны и с истёкшим доступом
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireLogin())
				r.Get("/navigation", navhandler.New(logger, svc.Menus).ServeHTTP)
				r.Get("/dashboard", summary.New(logger, svc.Dashboard, svc.Rewards, svc.Menus, now).ServeHTTP)
				r.Get("/dashboard/weekly-profit", weeklyprofit.New(logger, svc.Dashboard, now).ServeHTTP)
				r.Get("/rewards", rewardsview.New(logger, svc.Rewards, now).ServeHTTP)
				r.Post("/rewards/redeem", redeem.New(logger, svc.Rewards, now).ServeHTTP)
				r.Get("/inventory", inventorylist.New(logger, svc.Records).ServeHTTP)

				r.Get("/subscribe", plans.New(logger, svc.Subscription).ServeHTTP)
				r.Get("/subscribe/status", status.New(logger, now).ServeHTTP)
				r.Get("/subscribe/required", required.New(logger, svc.Subscription, apiPrefix+"/subscribe").ServeHTTP)
				r.Get("/subscribe/manage", manage.New(logger, svc.Subscription, now).ServeHTTP)
				r.Get("/subscribe/callback", callback.New(logger, svc.Subscription, now).ServeHTTP)
				r.With(initiateLimit.Middleware(logger)).
					Post("/subscribe/initiate", initiate.New(logger, svc.Subscription, now).ServeHTTP)
				r.With(uploadLimit.Middleware(logger)).
					Post("/subscribe/upload-receipt", upload.New(logger, svc.Subscription, now).ServeHTTP)
			})

			// Изменение данных: роль и действующий доступ
			r.Group(func(r chi.Router) {
				r.Use(guard.RequireRole(models.RoleTrader, models.RoleStartup))
				r.Post("/records", create.New(logger, svc.Records, now).ServeHTTP)
				r.Post("/cashflows", cashflow.New(logger, svc.Records, now).ServeHTTP)
				r.Post("/inventory", inventoryadd.New(logger, svc.Records, now).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
