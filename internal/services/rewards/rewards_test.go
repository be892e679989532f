package rewards

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/metrics"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) HasQualifyingActivity(ctx context.Context, userUID string, from, to time.Time) (bool, error) {
	args := m.Called(ctx, userUID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CreditDay(ctx context.Context, userUID string, today, now time.Time) (*models.RewardState, bool, error) {
	args := m.Called(ctx, userUID, today, now)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.RewardState), args.Bool(1), args.Error(2)
}

func (m *RepoMock) ResetStaleStreak(ctx context.Context, userUID string, before, now time.Time) (bool, error) {
	args := m.Called(ctx, userUID, before, now)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) GetRewardState(ctx context.Context, userUID string) (*models.RewardState, error) {
	args := m.Called(ctx, userUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RewardState), args.Error(1)
}

func (m *RepoMock) RedeemPoints(ctx context.Context, p repository.RedeemParams) (*models.RedemptionResult, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RedemptionResult), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func newService(repo *RepoMock) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewService(repo, m, newNoopLogger()), m
}

var (
	now       = time.Date(2025, 3, 10, 15, 30, 0, 0, time.UTC)
	today     = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow  = today.AddDate(0, 0, 1)
	yesterday = today.AddDate(0, 0, -1)
)

func TestService_Evaluate(t *testing.T) {
	tests := []struct {
		name        string
		setupMocks  func(r *RepoMock)
		wantState   *models.RewardState
		wantCredits float64
		wantErr     bool
	}{
		{
			name: "activity today credits the day",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(true, nil).Once()
				r.On("CreditDay", mock.Anything, "u1", today, now).
					Return(&models.RewardState{UserUID: "u1", Streak: 4, Points: 10}, true, nil).Once()
			},
			wantState:   &models.RewardState{UserUID: "u1", Streak: 4, Points: 10},
			wantCredits: 1,
		},
		{
			name: "second evaluation the same day changes nothing",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(true, nil).Once()
				r.On("CreditDay", mock.Anything, "u1", today, now).
					Return(&models.RewardState{UserUID: "u1", Streak: 4, Points: 10}, false, nil).Once()
			},
			wantState:   &models.RewardState{UserUID: "u1", Streak: 4, Points: 10},
			wantCredits: 0,
		},
		{
			name: "no activity resets a stale streak and keeps points",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(false, nil).Once()
				r.On("ResetStaleStreak", mock.Anything, "u1", yesterday, now).Return(true, nil).Once()
				r.On("GetRewardState", mock.Anything, "u1").
					Return(&models.RewardState{UserUID: "u1", Streak: 0, Points: 7}, nil).Once()
			},
			wantState: &models.RewardState{UserUID: "u1", Streak: 0, Points: 7},
		},
		{
			name: "missing state is zero",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(false, nil).Once()
				r.On("ResetStaleStreak", mock.Anything, "u1", yesterday, now).Return(false, nil).Once()
				r.On("GetRewardState", mock.Anything, "u1").Return(&models.RewardState{UserUID: "u1"}, nil).Once()
			},
			wantState: &models.RewardState{UserUID: "u1"},
		},
		{
			name: "activity query error",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(false, errors.New("db down")).Once()
			},
			wantErr: true,
		},
		{
			name: "credit error",
			setupMocks: func(r *RepoMock) {
				r.On("HasQualifyingActivity", mock.Anything, "u1", today, tomorrow).Return(true, nil).Once()
				r.On("CreditDay", mock.Anything, "u1", today, now).Return(nil, false, errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc, m := newService(repo)

			state, err := svc.Evaluate(context.Background(), "u1", now)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, state)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantState, state)
			}
			assert.Equal(t, tt.wantCredits, testutil.ToFloat64(m.RewardCredits))
			repo.AssertExpectations(t)
		})
	}
}

func TestService_Evaluate_NonUTCClock(t *testing.T) {
	repo := new(RepoMock)
	svc, _ := newService(repo)
	lagos := time.FixedZone("WAT", 3600)
	// 00:30 по Лагосу ещё 9 марта в UTC
	local := time.Date(2025, 3, 10, 0, 30, 0, 0, lagos)
	prevDay := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	repo.On("HasQualifyingActivity", mock.Anything, "u1", prevDay, today).Return(false, nil).Once()
	repo.On("ResetStaleStreak", mock.Anything, "u1", prevDay.AddDate(0, 0, -1), local.UTC()).Return(false, nil).Once()
	repo.On("GetRewardState", mock.Anything, "u1").Return(&models.RewardState{UserUID: "u1"}, nil).Once()

	_, err := svc.Evaluate(context.Background(), "u1", local)
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestService_Redeem(t *testing.T) {
	expiry := now.Add(DiscountDuration)
	params := repository.RedeemParams{
		UserUID:            "u1",
		RequestID:          "req-1",
		Cost:               100,
		DiscountPercentage: 30,
		DiscountExpiry:     expiry,
		Now:                now,
	}

	tests := []struct {
		name        string
		repoResult  *models.RedemptionResult
		repoErr     error
		wantErr     error
		wantOutcome string
	}{
		{
			name: "success",
			repoResult: &models.RedemptionResult{
				RequestID: "req-1", PointsSpent: 100, RemainingPoints: 20,
				DiscountPercentage: 30, DiscountExpiry: expiry,
			},
			wantOutcome: "success",
		},
		{
			name: "replay returns recorded result",
			repoResult: &models.RedemptionResult{
				RequestID: "req-1", PointsSpent: 100, RemainingPoints: 20,
				DiscountPercentage: 30, DiscountExpiry: expiry, Replayed: true,
			},
			wantOutcome: "replayed",
		},
		{
			name:        "insufficient points",
			repoErr:     apperrors.ErrInsufficientPoints,
			wantErr:     apperrors.ErrInsufficientPoints,
			wantOutcome: "insufficient_points",
		},
		{
			name:        "already redeemed",
			repoErr:     apperrors.ErrAlreadyRedeemed,
			wantErr:     apperrors.ErrAlreadyRedeemed,
			wantOutcome: "already_redeemed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.repoErr != nil {
				repo.On("RedeemPoints", mock.Anything, params).Return(nil, tt.repoErr).Once()
			} else {
				repo.On("RedeemPoints", mock.Anything, params).Return(tt.repoResult, nil).Once()
			}
			svc, m := newService(repo)

			res, err := svc.Redeem(context.Background(), "u1", "req-1", now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, res)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.repoResult, res)
			}
			assert.Equal(t, float64(1), testutil.ToFloat64(m.Redemptions.WithLabelValues(tt.wantOutcome)))
			repo.AssertExpectations(t)
		})
	}
}
