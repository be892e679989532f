// Package notifier собирает воркер, который читает события из RabbitMQ
// и рассылает письма.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookkeeper/internal/config"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/smtp"
	notifierservice "github.com/magabrotheeeer/bookkeeper/internal/services/notifier"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/repository"
)

// ErrBrokerNotConfigured не задан адрес RabbitMQ.
var ErrBrokerNotConfigured = errors.New("rabbitmq url is not configured")

// App воркер уведомлений.
type App struct {
	db       *repository.Storage
	conn     *amqp.Connection
	ch       *amqp.Channel
	notifier *notifierservice.Service
	logger   *slog.Logger
}

// New подключается к базе и брокеру и объявляет очереди уведомлений.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "notifier.New"
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrBrokerNotConfigured)
	}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.CheckReady(ctx, "users"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := smtp.NewTransport(cfg.SMTP, logger)
	svc := notifierservice.New(db, transport, cfg.AdminEmail, logger)

	return &App{
		db:       db,
		conn:     conn,
		ch:       ch,
		notifier: svc,
		logger:   logger,
	}, nil
}

// Run запускает потребителей и блокируется до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	const op = "notifier.Run"
	handlers := map[string]rabbitmq.Handler{
		rabbitmq.RoutingSubscriptionActivated: a.notifier.SubscriptionActivated,
		rabbitmq.RoutingReceiptUploaded:       a.notifier.ReceiptUploaded,
	}
	for _, q := range rabbitmq.GetNotificationQueues() {
		handler, ok := handlers[q.RoutingKey]
		if !ok {
			continue
		}
		if err := rabbitmq.Consume(ctx, a.ch, q.QueueName, a.logger, handler); err != nil {
			a.close()
			return fmt.Errorf("%s: %w", op, err)
		}
		a.logger.Info("consumer started", slog.String("queue", q.QueueName))
	}

	<-ctx.Done()
	a.logger.Info("notifier shutting down gracefully")
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
