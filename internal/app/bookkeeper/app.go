package bookkeeper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookkeeper/internal/cache"
	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/filestore"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/jwt"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/metrics"
	"github.com/magabrotheeeer/bookkeeper/internal/migrations"
	"github.com/magabrotheeeer/bookkeeper/internal/navigation"
	"github.com/magabrotheeeer/bookkeeper/internal/paymentprovider"
	"github.com/magabrotheeeer/bookkeeper/internal/services/dashboard"
	"github.com/magabrotheeeer/bookkeeper/internal/services/records"
	"github.com/magabrotheeeer/bookkeeper/internal/services/rewards"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
	"github.com/magabrotheeeer/bookkeeper/internal/session"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-приложение со всеми зависимостями.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	cache     *cache.Cache
	amqpConn  *amqp.Connection
	publisher *rabbitmq.Publisher
}

// New подключается к хранилищам, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "bookkeeper.New"
	app := &App{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.db = db
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.cache = cacheRedis

	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher subscription.Publisher
	if cfg.RabbitMQURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.amqpConn = conn
		ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.publisher = rabbitmq.NewPublisher(ch)
		publisher = app.publisher
	} else {
		logger.Warn("rabbitmq url is empty, domain events are not published")
	}

	gateway := paymentprovider.NewClient(cfg.Paystack.SecretKey, cfg.Paystack.BaseURL, cfg.Paystack.Timeout)
	if !gateway.Configured() {
		logger.Warn("paystack secret key is empty, gateway calls will be rejected")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	callbackURL := cfg.Paystack.CallbackURL
	if callbackURL == "" {
		callbackURL = strings.TrimRight(cfg.PublicURL, "/") + apiPrefix + "/subscribe/callback"
	}

	svc := Services{
		Users:     db,
		Health:    db,
		Cache:     cacheRedis,
		Dashboard: dashboard.NewService(db, m, logger),
		Rewards:   rewards.NewService(db, m, logger),
		Subscription: subscription.NewService(subscription.Deps{
			Repo:      db,
			Gateway:   gateway,
			Pending:   session.NewPendingStore(cacheRedis, cfg.SessionTTL),
			Files:     files,
			Publisher: publisher,
			Metrics:   m,
		}, subscription.Settings{
			Plans:       cfg.Plans,
			Bank:        cfg.BankDetails,
			CallbackURL: callbackURL,
		}, logger),
		Records: records.NewService(db, logger),
		Menus:   navigation.Build(Paths, logger),
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, svc, Deps{
		Maker:    jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Metrics:  m,
		Registry: registry,
		Now:      func() time.Time { return time.Now().UTC() },
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq channel", sl.Err(err))
		}
	}
	if a.amqpConn != nil {
		if err := a.amqpConn.Close(); err != nil {
			a.logger.Warn("failed to close rabbitmq connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close database", sl.Err(err))
		}
	}
}
