package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// RedeemParams параметры обмена баллов на скидку.
type RedeemParams struct {
	UserUID            string
	RequestID          string
	Cost               int
	DiscountPercentage int
	DiscountExpiry     time.Time
	Now                time.Time
}

// GetRewardState возвращает счётчики наград пользователя.
// Для пользователя без записи возвращается нулевое состояние.
func (s *Storage) GetRewardState(ctx context.Context, userUID string) (*models.RewardState, error) {
	const op = "storage.GetRewardState"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	state := &models.RewardState{UserUID: userUID}
	var last sql.NullTime
	err := s.DB.QueryRowContext(ctx,
		`SELECT streak, points, last_activity_date FROM rewards WHERE user_uid = $1`,
		userUID).Scan(&state.Streak, &state.Points, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	state.LastActivityDate = datePtr(last)
	return state, nil
}

// CreditDay засчитывает день today: начисляет балл и продлевает серию, если
// вчера тоже была активность, иначе начинает серию заново. Начисление
// происходит не более одного раза за сутки: если today уже засчитан,
// возвращается текущее состояние и false.
func (s *Storage) CreditDay(ctx context.Context, userUID string, today, now time.Time) (*models.RewardState, bool, error) {
	const op = "storage.CreditDay"
	select {
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO rewards (user_uid, streak, points, last_activity_date, updated_at)
		VALUES ($1, 1, 1, $2, $3)
		ON CONFLICT (user_uid) DO UPDATE SET
		    streak = CASE
		        WHEN rewards.last_activity_date = EXCLUDED.last_activity_date - 1 THEN rewards.streak + 1
		        ELSE 1
		    END,
		    points = rewards.points + 1,
		    last_activity_date = EXCLUDED.last_activity_date,
		    updated_at = EXCLUDED.updated_at
		WHERE rewards.last_activity_date IS NULL
		   OR rewards.last_activity_date < EXCLUDED.last_activity_date
		RETURNING streak, points, last_activity_date`

	state := &models.RewardState{UserUID: userUID}
	var last sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID, today, now).Scan(&state.Streak, &state.Points, &last)
	if errors.Is(err, sql.ErrNoRows) {
		current, err := s.GetRewardState(ctx, userUID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		return current, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	state.LastActivityDate = datePtr(last)
	return state, true, nil
}

// ResetStaleStreak обнуляет серию, если последняя активность была раньше
// before. Баллы не меняются. Возвращает true, если серия была сброшена.
func (s *Storage) ResetStaleStreak(ctx context.Context, userUID string, before, now time.Time) (bool, error) {
	const op = "storage.ResetStaleStreak"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE rewards SET streak = 0, updated_at = $3
		 WHERE user_uid = $1 AND last_activity_date < $2 AND streak <> 0`,
		userUID, before, now)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// RedeemPoints списывает баллы и назначает скидку в одной транзакции.
// Строка пользователя блокируется, поэтому конкурентные обмены выполняются
// по очереди. Повтор с уже обработанным RequestID возвращает сохранённый
// результат с Replayed=true без повторного списания.
func (s *Storage) RedeemPoints(ctx context.Context, p RedeemParams) (*models.RedemptionResult, error) {
	const op = "storage.RedeemPoints"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var discountApplied bool
	err = tx.QueryRowContext(ctx,
		`SELECT discount_applied FROM users WHERE uid = $1 FOR UPDATE`,
		p.UserUID).Scan(&discountApplied)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prev := &models.RedemptionResult{RequestID: p.RequestID, Replayed: true}
	err = tx.QueryRowContext(ctx,
		`SELECT points_spent, remaining_points, discount_percentage, discount_expiry
		 FROM reward_redemptions
		 WHERE request_id = $1 AND user_uid = $2`,
		p.RequestID, p.UserUID).Scan(&prev.PointsSpent, &prev.RemainingPoints,
		&prev.DiscountPercentage, &prev.DiscountExpiry)
	switch {
	case err == nil:
		return prev, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if discountApplied {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrAlreadyRedeemed)
	}

	var remaining int
	err = tx.QueryRowContext(ctx,
		`UPDATE rewards SET points = points - $2, updated_at = $3
		 WHERE user_uid = $1 AND points >= $2
		 RETURNING points`,
		p.UserUID, p.Cost, p.Now).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrInsufficientPoints)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE users
		 SET discount_applied = TRUE, discount_percentage = $2, discount_expiry = $3
		 WHERE uid = $1`,
		p.UserUID, p.DiscountPercentage, p.DiscountExpiry); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO reward_redemptions (request_id, user_uid, points_spent, remaining_points,
		     discount_percentage, discount_expiry, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.RequestID, p.UserUID, p.Cost, remaining, p.DiscountPercentage, p.DiscountExpiry, p.Now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.RedemptionResult{
		RequestID:          p.RequestID,
		PointsSpent:        p.Cost,
		RemainingPoints:    remaining,
		DiscountPercentage: p.DiscountPercentage,
		DiscountExpiry:     p.DiscountExpiry,
	}, nil
}

// datePtr приводит DATE к началу суток в UTC.
func datePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	y, m, d := t.Time.Date()
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &v
}
