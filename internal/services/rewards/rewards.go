// Package rewards ведёт серию дней с учётными действиями и баллы
// пользователя, а также обмен баллов на скидку по подписке.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/day"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/repository"
)

// Условия обмена баллов.
const (
	RedeemCost         = 100
	DiscountPercentage = 30
	DiscountDuration   = 30 * 24 * time.Hour
)

// Repository методы хранилища, нужные трекеру.
type Repository interface {
	// HasQualifyingActivity есть ли учётные записи пользователя в [from, to).
	HasQualifyingActivity(ctx context.Context, userUID string, from, to time.Time) (bool, error)
	// CreditDay засчитывает день, не более одного раза за сутки.
	CreditDay(ctx context.Context, userUID string, today, now time.Time) (*models.RewardState, bool, error)
	// ResetStaleStreak обнуляет серию, если последняя активность раньше before.
	ResetStaleStreak(ctx context.Context, userUID string, before, now time.Time) (bool, error)
	// GetRewardState возвращает текущие счётчики.
	GetRewardState(ctx context.Context, userUID string) (*models.RewardState, error)
	// RedeemPoints списывает баллы и назначает скидку в одной транзакции.
	RedeemPoints(ctx context.Context, p repository.RedeemParams) (*models.RedemptionResult, error)
}

// Recorder метрики трекера.
type Recorder interface {
	Credited()
	Redeemed(outcome string)
}

// Service трекер вовлечённости.
type Service struct {
	repo    Repository
	metrics Recorder
	log     *slog.Logger
}

// NewService создаёт трекер.
func NewService(repo Repository, metrics Recorder, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
	}
}

// Evaluate пересчитывает серию и баллы на момент now. Если сегодня есть
// учётное действие, день засчитывается (повторный вызов в те же сутки
// ничего не меняет). Если нет и последняя активность была раньше вчерашнего
// дня, серия обнуляется, баллы сохраняются.
func (s *Service) Evaluate(ctx context.Context, userUID string, now time.Time) (*models.RewardState, error) {
	const op = "rewards.Evaluate"
	log := s.log.With(slog.String("op", op), sl.User(userUID))

	from, to := day.Bounds(now)
	active, err := s.repo.HasQualifyingActivity(ctx, userUID, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if active {
		state, credited, err := s.repo.CreditDay(ctx, userUID, from, now.UTC())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if credited {
			s.metrics.Credited()
			log.Debug("day credited", slog.Int("streak", state.Streak), slog.Int("points", state.Points))
		}
		return state, nil
	}

	reset, err := s.repo.ResetStaleStreak(ctx, userUID, from.AddDate(0, 0, -1), now.UTC())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if reset {
		log.Debug("streak reset")
	}

	state, err := s.repo.GetRewardState(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return state, nil
}

// Redeem обменивает RedeemCost баллов на скидку DiscountPercentage% на
// DiscountDuration. requestID служит ключом идемпотентности: повтор с тем же
// ключом возвращает сохранённый результат без повторного списания.
func (s *Service) Redeem(ctx context.Context, userUID, requestID string, now time.Time) (*models.RedemptionResult, error) {
	const op = "rewards.Redeem"
	log := s.log.With(slog.String("op", op), sl.User(userUID), slog.String("request_id", requestID))

	now = now.UTC()
	res, err := s.repo.RedeemPoints(ctx, repository.RedeemParams{
		UserUID:            userUID,
		RequestID:          requestID,
		Cost:               RedeemCost,
		DiscountPercentage: DiscountPercentage,
		DiscountExpiry:     now.Add(DiscountDuration),
		Now:                now,
	})
	switch {
	case errors.Is(err, apperrors.ErrInsufficientPoints):
		s.metrics.Redeemed("insufficient_points")
		return nil, fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, apperrors.ErrAlreadyRedeemed):
		s.metrics.Redeemed("already_redeemed")
		return nil, fmt.Errorf("%s: %w", op, err)
	case err != nil:
		s.metrics.Redeemed("error")
		log.Error("redeem failed", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if res.Replayed {
		s.metrics.Redeemed("replayed")
	} else {
		s.metrics.Redeemed("success")
		log.Info("points redeemed", slog.Int("remaining", res.RemainingPoints))
	}
	return res, nil
}
