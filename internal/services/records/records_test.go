package records

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateRecord(ctx context.Context, rec models.Record) (int64, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) CreateCashflow(ctx context.Context, c models.Cashflow) (int64, error) {
	args := m.Called(ctx, c)
	return args.Get(0).(int64), args.Error(1)
}

func (m *RepoMock) ListInventory(ctx context.Context, userUID string) ([]models.Record, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Record), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var now = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

func activeUser() *models.User {
	end := now.AddDate(0, 0, 5)
	return &models.User{UUID: "u1", Role: models.RoleTrader, IsTrial: true, TrialEnd: &end}
}

func expiredUser() *models.User {
	end := now.Add(-time.Minute)
	return &models.User{UUID: "u2", Role: models.RoleTrader, IsTrial: true, TrialEnd: &end}
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }

func TestService_CreateRecord(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		req        models.DummyRecord
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name: "sanitizes and stores",
			user: activeUser(),
			req: models.DummyRecord{
				Type: models.TypeDebtor, Name: "  <Ada>  ", Contact: "0803'",
				AmountOwed: ptr(decimal.NewFromInt(80)),
			},
			setupMocks: func(r *RepoMock) {
				r.On("CreateRecord", mock.Anything, mock.MatchedBy(func(rec models.Record) bool {
					return rec.UserUID == "u1" && rec.Name == "Ada" && rec.Contact == "0803" &&
						rec.Type == models.TypeDebtor && rec.CreatedAt.Equal(now)
				})).Return(int64(7), nil).Once()
			},
		},
		{
			name:    "expired trial cannot write",
			user:    expiredUser(),
			req:     models.DummyRecord{Type: models.TypeSale, Amount: ptr(decimal.NewFromInt(5))},
			wantErr: apperrors.ErrInteractionDisabled,
		},
		{
			name:    "negative amount",
			user:    activeUser(),
			req:     models.DummyRecord{Type: models.TypeSale, Amount: ptr(decimal.NewFromInt(-5))},
			wantErr: apperrors.ErrInvalidInput,
		},
		{
			name: "storage error",
			user: activeUser(),
			req:  models.DummyRecord{Type: models.TypeExpense, Amount: ptr(decimal.NewFromInt(5))},
			setupMocks: func(r *RepoMock) {
				r.On("CreateRecord", mock.Anything, mock.Anything).Return(int64(0), apperrors.ErrStorageUnavailable).Once()
			},
			wantErr: apperrors.ErrStorageUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.setupMocks != nil {
				tt.setupMocks(repo)
			}
			svc := NewService(repo, newNoopLogger())

			rec, err := svc.CreateRecord(context.Background(), tt.user, tt.req, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rec)
			} else {
				require.NoError(t, err)
				assert.Equal(t, int64(7), rec.ID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_CreateCashflow(t *testing.T) {
	repo := new(RepoMock)
	svc := NewService(repo, newNoopLogger())

	_, err := svc.CreateCashflow(context.Background(), activeUser(),
		models.DummyCashflow{Type: models.TypeReceipt, Amount: decimal.Zero}, now)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	repo.On("CreateCashflow", mock.Anything, mock.MatchedBy(func(c models.Cashflow) bool {
		return c.Type == models.TypeReceipt && c.Amount.Equal(decimal.NewFromInt(250)) && c.Description == "rice sold"
	})).Return(int64(3), nil).Once()

	c, err := svc.CreateCashflow(context.Background(), activeUser(),
		models.DummyCashflow{Type: models.TypeReceipt, Amount: decimal.NewFromInt(250), Description: "<rice sold>"}, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), c.ID)
	repo.AssertExpectations(t)
}

func TestService_AddInventory(t *testing.T) {
	t.Run("admin always allowed", func(t *testing.T) {
		repo := new(RepoMock)
		svc := NewService(repo, newNoopLogger())
		repo.On("CreateRecord", mock.Anything, mock.MatchedBy(func(rec models.Record) bool {
			return rec.Type == models.TypeInventory && rec.Cost.Equal(decimal.NewFromInt(90)) &&
				rec.ExpectedMargin.Equal(decimal.NewFromInt(60))
		})).Return(int64(1), nil).Once()

		_, err := svc.AddInventory(context.Background(), &models.User{UUID: "a", Role: models.RoleAdmin},
			models.DummyInventory{Name: "Rice", Cost: decimal.NewFromInt(90), ExpectedMargin: decimal.NewFromInt(60)}, now)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("expired user", func(t *testing.T) {
		svc := NewService(new(RepoMock), newNoopLogger())
		_, err := svc.AddInventory(context.Background(), expiredUser(),
			models.DummyInventory{Name: "Rice", Cost: decimal.NewFromInt(1)}, now)
		require.ErrorIs(t, err, apperrors.ErrInteractionDisabled)
	})

	t.Run("name empty after sanitizing", func(t *testing.T) {
		svc := NewService(new(RepoMock), newNoopLogger())
		_, err := svc.AddInventory(context.Background(), activeUser(),
			models.DummyInventory{Name: "<>", Cost: decimal.NewFromInt(1)}, now)
		require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	})
}

func TestService_ListInventory(t *testing.T) {
	repo := new(RepoMock)
	svc := NewService(repo, newNoopLogger())
	repo.On("ListInventory", mock.Anything, "u1").Return([]models.Record{{ID: 1, Name: `"Beans"`}}, nil).Once()

	items, err := svc.ListInventory(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Beans", items[0].Name)

	repo.On("ListInventory", mock.Anything, "u2").Return(nil, errors.New("db")).Once()
	_, err = svc.ListInventory(context.Background(), "u2")
	assert.Error(t, err)
}
