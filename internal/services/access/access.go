// Package access определяет права пользователя по состоянию подписки
// и пробного периода. Разрешение на изменение данных и показ баннера
// о подписке выводятся из одного состояния AccessState.
package access

import (
	"time"

	"github.com/magabrotheeeer/bookkeeper/internal/lib/day"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// AccessState доступ пользователя на момент проверки.
type AccessState struct {
	Authenticated      bool
	Admin              bool
	SubscriptionActive bool
	TrialActive        bool
}

// State вычисляет AccessState. user == nil означает неаутентифицированный запрос.
func State(user *models.User, now time.Time) AccessState {
	if user == nil {
		return AccessState{}
	}
	now = now.UTC()
	st := AccessState{
		Authenticated: true,
		Admin:         user.Role == models.RoleAdmin,
	}
	if user.IsSubscribed {
		end := day.UTCPtr(user.SubscriptionEnd)
		st.SubscriptionActive = end == nil || end.After(now)
	}
	if user.IsTrial {
		end := day.UTCPtr(user.TrialEnd)
		st.TrialActive = end != nil && end.After(now)
	}
	return st
}

// PaidAccess есть ли действующая подписка или пробный период.
func (s AccessState) PaidAccess() bool {
	return s.SubscriptionActive || s.TrialActive
}

// CanInteract может ли пользователь изменять данные.
func (s AccessState) CanInteract() bool {
	if !s.Authenticated {
		return false
	}
	return s.Admin || s.PaidAccess()
}

// ShouldShowBanner показывать ли предупреждение об отсутствии подписки.
// Баннер виден ровно тогда, когда аутентифицированный не-админ не может
// изменять данные.
func (s AccessState) ShouldShowBanner() bool {
	return s.Authenticated && !s.CanInteract()
}

// CanInteract сокращение для State(user, now).CanInteract().
func CanInteract(user *models.User, now time.Time) bool {
	return State(user, now).CanInteract()
}

// ShouldShowBanner сокращение для State(user, now).ShouldShowBanner().
func ShouldShowBanner(user *models.User, now time.Time) bool {
	return State(user, now).ShouldShowBanner()
}

// Decision результат проверки доступа к маршруту.
type Decision int

// Исходы проверки RequireRole.
const (
	Allow Decision = iota
	RedirectLogin
	RedirectDenied
	RedirectSubscriptionRequired
)

// CheckRole проверяет доступ к маршруту для ролей allowed в порядке:
// аутентификация, администратор, роль, действующая подписка или пробный период.
func CheckRole(user *models.User, now time.Time, allowed ...string) Decision {
	st := State(user, now)
	if !st.Authenticated {
		return RedirectLogin
	}
	if st.Admin {
		return Allow
	}
	roleOK := false
	for _, r := range allowed {
		if r == user.Role {
			roleOK = true
			break
		}
	}
	if !roleOK {
		return RedirectDenied
	}
	if !st.PaidAccess() {
		return RedirectSubscriptionRequired
	}
	return Allow
}
