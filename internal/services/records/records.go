// Package records добавляет финансовые записи, движения денег и товарные
// позиции. Изменения доступны только пользователям с действующей подпиской
// или пробным периодом.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/day"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sanitize"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/services/access"
)

const statusMaxLen = 20

// Repository методы хранилища записей.
type Repository interface {
	CreateRecord(ctx context.Context, rec models.Record) (int64, error)
	CreateCashflow(ctx context.Context, c models.Cashflow) (int64, error)
	ListInventory(ctx context.Context, userUID string) ([]models.Record, error)
}

// Service операции над записями пользователя.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создаёт сервис записей.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func checkInteract(user *models.User, now time.Time) error {
	if !access.CanInteract(user, now) {
		return apperrors.ErrInteractionDisabled
	}
	return nil
}

func nonNegative(name string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", apperrors.ErrInvalidInput, name)
	}
	return nil
}

// CreateRecord сохраняет финансовую запись.
func (s *Service) CreateRecord(ctx context.Context, user *models.User, req models.DummyRecord, now time.Time) (*models.Record, error) {
	const op = "records.CreateRecord"
	if err := checkInteract(user, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for name, v := range map[string]*decimal.Decimal{
		"amount":            req.Amount,
		"amount_owed":       req.AmountOwed,
		"projected_revenue": req.ProjectedRevenue,
	} {
		if err := nonNegative(name, v); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	rec := models.Record{
		UserUID:          user.UUID,
		Type:             req.Type,
		Name:             sanitize.String(req.Name, sanitize.NameMaxLen),
		Description:      sanitize.String(req.Description, sanitize.DescriptionMaxLen),
		Contact:          sanitize.String(req.Contact, sanitize.ContactMaxLen),
		Amount:           req.Amount,
		AmountOwed:       req.AmountOwed,
		ProjectedRevenue: req.ProjectedRevenue,
		Status:           sanitize.String(req.Status, statusMaxLen),
		ReminderDate:     day.UTCPtr(req.ReminderDate),
		CreatedAt:        now.UTC(),
	}
	id, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		s.log.Error("failed to create record", slog.String("op", op), sl.User(user.UUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.ID = id
	return &rec, nil
}

// CreateCashflow сохраняет платёж или поступление.
func (s *Service) CreateCashflow(ctx context.Context, user *models.User, req models.DummyCashflow, now time.Time) (*models.Cashflow, error) {
	const op = "records.CreateCashflow"
	if err := checkInteract(user, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%s: %w: amount must be positive", op, apperrors.ErrInvalidInput)
	}

	c := models.Cashflow{
		UserUID:     user.UUID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: sanitize.String(req.Description, sanitize.DescriptionMaxLen),
		CreatedAt:   now.UTC(),
	}
	id, err := s.repo.CreateCashflow(ctx, c)
	if err != nil {
		s.log.Error("failed to create cashflow", slog.String("op", op), sl.User(user.UUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	c.ID = id
	return &c, nil
}

// AddInventory добавляет товарную позицию.
func (s *Service) AddInventory(ctx context.Context, user *models.User, req models.DummyInventory, now time.Time) (*models.Record, error) {
	const op = "records.AddInventory"
	if err := checkInteract(user, now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := nonNegative("cost", &req.Cost); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := nonNegative("expected_margin", &req.ExpectedMargin); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	name := sanitize.String(req.Name, sanitize.NameMaxLen)
	if name == "" {
		return nil, fmt.Errorf("%s: %w: name is required", op, apperrors.ErrInvalidInput)
	}

	rec := models.Record{
		UserUID:        user.UUID,
		Type:           models.TypeInventory,
		Name:           name,
		Cost:           &req.Cost,
		ExpectedMargin: &req.ExpectedMargin,
		CreatedAt:      now.UTC(),
	}
	id, err := s.repo.CreateRecord(ctx, rec)
	if err != nil {
		s.log.Error("failed to add inventory", slog.String("op", op), sl.User(user.UUID), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	rec.ID = id
	return &rec, nil
}

// ListInventory возвращает товарные позиции пользователя.
func (s *Service) ListInventory(ctx context.Context, userUID string) ([]models.Record, error) {
	const op = "records.ListInventory"
	items, err := s.repo.ListInventory(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]models.Record, len(items))
	for i, it := range items {
		it.Name = sanitize.String(it.Name, sanitize.NameMaxLen)
		it.CreatedAt = day.UTC(it.CreatedAt)
		out[i] = it
	}
	return out, nil
}
