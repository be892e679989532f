package access

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

func ptr(t time.Time) *time.Time { return &t }

func TestState(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		user        *models.User
		canInteract bool
		banner      bool
	}{
		{
			name:        "unauthenticated",
			user:        nil,
			canInteract: false,
			banner:      false,
		},
		{
			name:        "admin with no subscription or trial fields",
			user:        &models.User{Role: models.RoleAdmin},
			canInteract: true,
			banner:      false,
		},
		{
			name:        "subscribed without end date",
			user:        &models.User{Role: models.RoleTrader, IsSubscribed: true},
			canInteract: true,
		},
		{
			name:        "subscribed with future end",
			user:        &models.User{Role: models.RoleTrader, IsSubscribed: true, SubscriptionEnd: ptr(now.Add(time.Hour))},
			canInteract: true,
		},
		{
			name:        "subscription expired one second ago without trial",
			user:        &models.User{Role: models.RoleTrader, IsSubscribed: true, SubscriptionEnd: ptr(now.Add(-time.Second))},
			canInteract: false,
			banner:      true,
		},
		{
			name:        "subscription ends exactly now",
			user:        &models.User{Role: models.RoleStartup, IsSubscribed: true, SubscriptionEnd: ptr(now)},
			canInteract: false,
			banner:      true,
		},
		{
			name:        "active trial",
			user:        &models.User{Role: models.RoleStartup, IsTrial: true, TrialEnd: ptr(now.AddDate(0, 0, 3))},
			canInteract: true,
		},
		{
			name:        "trial flag without end date",
			user:        &models.User{Role: models.RoleStartup, IsTrial: true},
			canInteract: false,
			banner:      true,
		},
		{
			name: "expired subscription but active trial",
			user: &models.User{
				Role: models.RoleTrader, IsSubscribed: true, SubscriptionEnd: ptr(now.Add(-time.Hour)),
				IsTrial: true, TrialEnd: ptr(now.Add(time.Hour)),
			},
			canInteract: true,
		},
		{
			name:        "nothing at all",
			user:        &models.User{Role: models.RoleTrader},
			canInteract: false,
			banner:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canInteract, CanInteract(tt.user, now))
			assert.Equal(t, tt.banner, ShouldShowBanner(tt.user, now))
		})
	}
}

func TestState_NaiveStoredTimeTreatedAsUTC(t *testing.T) {
	orig := time.Local
	time.Local = time.FixedZone("UTC+5", 5*3600)
	t.Cleanup(func() { time.Local = orig })

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	// Без нормализации 13:00 по "местному" времени было бы 08:00 UTC, то есть в прошлом.
	naive := time.Date(2025, 3, 10, 13, 0, 0, 0, time.Local)
	user := &models.User{Role: models.RoleTrader, IsTrial: true, TrialEnd: &naive}

	assert.True(t, CanInteract(user, now))
}

func TestBannerNeverDivergesFromGate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	ends := []*time.Time{nil, ptr(now.Add(-time.Second)), ptr(now), ptr(now.Add(time.Second))}
	roles := []string{models.RoleTrader, models.RoleStartup, models.RoleAdmin}

	for _, role := range roles {
		for _, subscribed := range []bool{false, true} {
			for _, trial := range []bool{false, true} {
				for _, subEnd := range ends {
					for _, trialEnd := range ends {
						u := &models.User{
							Role: role, IsSubscribed: subscribed, SubscriptionEnd: subEnd,
							IsTrial: trial, TrialEnd: trialEnd,
						}
						st := State(u, now)
						assert.Equal(t, !st.CanInteract(), st.ShouldShowBanner(), "%+v", u)
					}
				}
			}
		}
	}
}

func TestCheckRole(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	active := ptr(now.Add(time.Hour))
	expired := ptr(now.Add(-time.Hour))

	tests := []struct {
		name    string
		user    *models.User
		allowed []string
		want    Decision
	}{
		{name: "anonymous goes to login", user: nil, allowed: []string{models.RoleTrader}, want: RedirectLogin},
		{name: "admin bypasses role list", user: &models.User{Role: models.RoleAdmin}, allowed: []string{models.RoleTrader}, want: Allow},
		{name: "role not allowed", user: &models.User{Role: models.RoleStartup, IsTrial: true, TrialEnd: active}, allowed: []string{models.RoleTrader}, want: RedirectDenied},
		{name: "role allowed but trial expired", user: &models.User{Role: models.RoleTrader, IsTrial: true, TrialEnd: expired}, allowed: []string{models.RoleTrader}, want: RedirectSubscriptionRequired},
		{name: "role not allowed wins over expired trial", user: &models.User{Role: models.RoleStartup, IsTrial: true, TrialEnd: expired}, allowed: []string{models.RoleTrader}, want: RedirectDenied},
		{name: "subscribed trader", user: &models.User{Role: models.RoleTrader, IsSubscribed: true}, allowed: []string{models.RoleTrader, models.RoleStartup}, want: Allow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckRole(tt.user, now, tt.allowed...))
		})
	}
}
