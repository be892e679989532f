// Package summary реализует HTTP-обработчик дашборда.
//
// Handler собирает сводку по записям пользователя, засчитывает день
// активности, добавляет непогашенные долги, признак потерь по запасам,
// напоминание о дневном учёте, флаги доступа и меню. Ошибка любой
// дополнительной части не роняет ответ: поле остаётся по умолчанию,
// в Warnings добавляется предупреждение.
package summary

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/bookkeeper/internal/http/middlewarectx"
	"github.com/magabrotheeeer/bookkeeper/internal/http/response"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/navigation"
	"github.com/magabrotheeeer/bookkeeper/internal/services/access"
	"github.com/magabrotheeeer/bookkeeper/internal/services/dashboard"
)

// Dashboard описывает вычисления дашборда.
type Dashboard interface {
	BuildSummary(ctx context.Context, userUID string, now time.Time, opts dashboard.Options) *dashboard.Summary
	UnpaidPositions(ctx context.Context, userUID string) ([]models.Record, []models.Record, error)
	DetectInventoryLoss(ctx context.Context, userUID string) (bool, error)
	NeedsDailyLogReminder(ctx context.Context, userUID string, now time.Time) (bool, error)
}

// Rewards засчитывает день активности.
type Rewards interface {
	Evaluate(ctx context.Context, userUID string, now time.Time) (*models.RewardState, error)
}

// Menus возвращает меню для роли.
type Menus interface {
	For(role string) navigation.Menu
}

// View тело ответа дашборда.
type View struct {
	*dashboard.Summary
	Streak           int             `json:"streak"`
	Points           int             `json:"points"`
	UnpaidDebtors    []models.Record `json:"unpaid_debtors"`
	UnpaidCreditors  []models.Record `json:"unpaid_creditors"`
	InventoryLoss    bool            `json:"inventory_loss"`
	DailyLogReminder bool            `json:"daily_log_reminder"`
	CanInteract      bool            `json:"can_interact"`
	ShowBanner       bool            `json:"show_banner"`
	Navigation       navigation.Menu `json:"navigation"`
}

// Handler отвечает на GET /dashboard.
type Handler struct {
	log       *slog.Logger
	dashboard Dashboard
	rewards   Rewards
	menus     Menus
	now       func() time.Time
}

// New создаёт Handler.
func New(log *slog.Logger, d Dashboard, rewards Rewards, menus Menus, now func() time.Time) *Handler {
	return &Handler{
		log:       log,
		dashboard: d,
		rewards:   rewards,
		menus:     menus,
		now:       now,
	}
}

// ServeHTTP godoc
// @Summary Дашборд
// @Description Сводка по финансовым записям, серия активности, долги и флаги доступа.
// @Description Параметр tax_prep=1 включает режим подготовки к налогам.
// @Tags Dashboard
// @Produce json
// @Param tax_prep query string false "1: режим подготовки к налогам"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.ErrorResponse
// @Router /dashboard [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.dashboard.summary"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFrom(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	log = log.With(sl.User(user.UUID))

	ctx := r.Context()
	now := h.now()
	opts := dashboard.Options{TaxPrepMode: r.URL.Query().Get("tax_prep") == "1"}

	st := access.State(user, now)
	view := View{
		Summary:         h.dashboard.BuildSummary(ctx, user.UUID, now, opts),
		UnpaidDebtors:   []models.Record{},
		UnpaidCreditors: []models.Record{},
		CanInteract:     st.CanInteract(),
		ShowBanner:      st.ShouldShowBanner(),
		Navigation:      h.menus.For(user.Role),
	}
	if view.Critical {
		log.Error("dashboard storage unavailable")
		render.JSON(w, r, response.StatusOKWithData(view))
		return
	}

	warn := func(what string, err error) {
		log.Warn("dashboard part failed", slog.String("part", what), sl.Err(err))
		view.Warnings = append(view.Warnings, "Could not load "+what+".")
	}

	if state, err := h.rewards.Evaluate(ctx, user.UUID, now); err != nil {
		warn("streak", err)
	} else {
		view.Streak = state.Streak
		view.Points = state.Points
	}
	if debtors, creditors, err := h.dashboard.UnpaidPositions(ctx, user.UUID); err != nil {
		warn("unpaid positions", err)
	} else {
		view.UnpaidDebtors = debtors
		view.UnpaidCreditors = creditors
	}
	if loss, err := h.dashboard.DetectInventoryLoss(ctx, user.UUID); err != nil {
		warn("inventory status", err)
	} else {
		view.InventoryLoss = loss
	}
	if remind, err := h.dashboard.NeedsDailyLogReminder(ctx, user.UUID, now); err != nil {
		warn("daily log status", err)
	} else {
		view.DailyLogReminder = remind
	}

	render.JSON(w, r, response.StatusOKWithData(view))
}
