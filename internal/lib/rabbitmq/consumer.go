package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
)

// maxInFlight сколько сообщений одной очереди обрабатывается одновременно.
const maxInFlight = 10

// Handler обрабатывает тело сообщения. Ошибка возвращает сообщение в очередь.
type Handler func(ctx context.Context, body []byte) error

// Consume читает очередь queueName, пока не отменён ctx или не закрыт канал.
// Сообщение, обработка которого не удалась повторно, отбрасывается.
func Consume(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler Handler) error {
	const op = "rabbitmq.Consume"
	if err := ch.Qos(maxInFlight, 0, false); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	deliveries, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	go dispatch(ctx, deliveries, log, handler, maxInFlight)
	return nil
}

// dispatch раздаёт сообщения обработчикам, не более limit одновременно,
// и возвращается при отмене ctx или закрытии канала доставок.
func dispatch(ctx context.Context, deliveries <-chan amqp.Delivery, log *slog.Logger, handler Handler, limit int) {
	sem := make(chan struct{}, limit)
	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				log.Info("delivery channel closed")
				return
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				// неподтверждённое сообщение брокер вернёт в очередь при закрытии канала
				return
			}
			go func(d amqp.Delivery) {
				defer func() { <-sem }()
				handleDelivery(ctx, log, d, handler)
			}(d)
		case <-ctx.Done():
			return
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, log *slog.Logger, d amqp.Delivery, handler Handler) {
	settle(log, d, d.Redelivered, handler(ctx, d.Body))
}

func settle(log *slog.Logger, d acknowledger, redelivered bool, handlerErr error) {
	if handlerErr != nil {
		log.Error("failed to handle message", sl.Err(handlerErr), slog.Bool("redelivered", redelivered))
		if err := d.Nack(false, !redelivered); err != nil {
			log.Error("failed to nack message", sl.Err(err))
		}
		return
	}
	if err := d.Ack(false); err != nil {
		log.Error("failed to ack message", sl.Err(err))
	}
}
