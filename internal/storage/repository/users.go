package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// GetUser возвращает пользователя по его UID.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, role, is_subscribed, COALESCE(subscription_plan, ''),
			      subscription_start, subscription_end, is_trial, trial_end,
			      discount_applied, discount_percentage, discount_expiry
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	var (
		start, end, trialEnd, discountExpiry sql.NullTime
		discount                             decimal.NullDecimal
	)
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&u.UUID, &u.Email, &u.Role, &u.IsSubscribed, &u.SubscriptionPlan,
		&start, &end, &u.IsTrial, &trialEnd,
		&u.DiscountApplied, &discount, &discountExpiry)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u.SubscriptionStart = timePtr(start)
	u.SubscriptionEnd = timePtr(end)
	u.TrialEnd = timePtr(trialEnd)
	u.DiscountExpiry = timePtr(discountExpiry)
	if discount.Valid {
		u.DiscountPercentage = discount.Decimal
	}
	return u, nil
}

// PaymentExists сообщает, была ли оплата с данным reference уже применена.
func (s *Storage) PaymentExists(ctx context.Context, reference string) (bool, error) {
	const op = "storage.PaymentExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM subscription_payments WHERE reference = $1)`
	if err := s.DB.QueryRowContext(ctx, query, reference).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ActivateSubscription в одной транзакции фиксирует оплату, продлевает подписку
// пользователя и пишет запись аудита. Повторный вызов с тем же reference
// ничего не меняет и возвращает false.
func (s *Storage) ActivateSubscription(ctx context.Context, act models.SubscriptionActivation) (bool, error) {
	const op = "storage.ActivateSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	res, err := tx.ExecContext(ctx,
		`INSERT INTO subscription_payments (reference, user_uid, plan_code, amount, verified_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (reference) DO NOTHING`,
		act.Reference, act.UserUID, act.PlanCode, act.Amount, act.Start)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if inserted == 0 {
		return false, nil
	}

	res, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET is_subscribed = TRUE, subscription_plan = $2,
		     subscription_start = $3, subscription_end = $4
		 WHERE uid = $1`,
		act.UserUID, act.PlanCode, act.Start, act.End)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		return false, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}

	err = insertAudit(ctx, tx, models.AuditLog{
		Actor:  "system",
		Action: "subscription_success",
		Details: map[string]any{
			"user_uid":  act.UserUID,
			"reference": act.Reference,
			"plan":      act.PlanCode,
			"amount":    act.Amount,
		},
		CreatedAt: act.Start,
	})
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return true, nil
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
