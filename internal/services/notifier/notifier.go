// Package notifier отправляет письма по событиям подписки: активация
// подписки и загрузка квитанции ручной оплаты.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/smtp"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/subscription"
)

// UserGetter загружает получателя письма.
type UserGetter interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
}

// Service отправитель уведомлений.
type Service struct {
	users      UserGetter
	transport  smtp.TransportInterface
	adminEmail string
	log        *slog.Logger
}

// New создаёт сервис уведомлений. Пустой adminEmail отключает письма администратору.
func New(users UserGetter, transport smtp.TransportInterface, adminEmail string, log *slog.Logger) *Service {
	return &Service{
		users:      users,
		transport:  transport,
		adminEmail: adminEmail,
		log:        log,
	}
}

// SubscriptionActivated сообщает пользователю об активации подписки.
func (s *Service) SubscriptionActivated(ctx context.Context, body []byte) error {
	const op = "notifier.SubscriptionActivated"
	log := s.log.With(slog.String("op", op))

	var event subscription.ActivatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("dropping malformed event", sl.Err(err))
		return nil
	}
	log = log.With(sl.User(event.UserUID), slog.String("reference", event.Reference))

	user, err := s.recipient(ctx, event.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		log.Warn("recipient has no email, skipping")
		return nil
	}

	text := fmt.Sprintf(
		"Hello,\n\nYour %s subscription is now active and runs until %s.\nPayment reference: %s.\n\nThank you for using Ficore.",
		event.PlanCode, event.SubscriptionEnd.Format("02 Jan 2006"), event.Reference,
	)
	if err := s.send([]string{user.Email}, "Your subscription is active", text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("activation email sent")
	return nil
}

// ReceiptUploaded подтверждает пользователю получение квитанции и
// просит администратора её проверить.
func (s *Service) ReceiptUploaded(ctx context.Context, body []byte) error {
	const op = "notifier.ReceiptUploaded"
	log := s.log.With(slog.String("op", op))

	var event subscription.ReceiptUploadedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Error("dropping malformed event", sl.Err(err))
		return nil
	}
	log = log.With(sl.User(event.UserUID), slog.Int64("receipt_id", event.ReceiptID))

	if s.adminEmail != "" {
		text := fmt.Sprintf(
			"Receipt #%d was uploaded by user %s.\nPlan: %s\nAmount paid: %s\nFile: %s\n\nPlease review it.",
			event.ReceiptID, event.UserUID, event.PlanType, event.AmountPaid.StringFixed(2), event.Filename,
		)
		if err := s.send([]string{s.adminEmail}, fmt.Sprintf("Receipt #%d awaiting review", event.ReceiptID), text); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	user, err := s.recipient(ctx, event.UserUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		log.Warn("recipient has no email, skipping")
		return nil
	}
	text := fmt.Sprintf(
		"Hello,\n\nWe received your payment receipt for the %s plan. Your subscription will be activated once it is verified.",
		event.PlanType,
	)
	if err := s.send([]string{user.Email}, "Receipt received", text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("receipt emails sent")
	return nil
}

// recipient возвращает nil без ошибки, если писать некому.
func (s *Service) recipient(ctx context.Context, userUID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, userUID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if user.Email == "" {
		return nil, nil
	}
	return user, nil
}

func (s *Service) send(to []string, subject, text string) error {
	from := s.transport.Sender()
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", text)

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			s.log.Debug("smtp client close", sl.Err(err))
		}
	}()

	if err := client.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("rcpt to %s: %w", addr, err)
		}
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := msg.WriteTo(wc); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write body: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close body: %w", err)
	}
	return client.Quit()
}
