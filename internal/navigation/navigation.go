// Package navigation содержит меню инструментов и навигации для каждой роли.
// Таблицы собираются один раз при старте через Build и дальше только читаются.
package navigation

import (
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// DefaultIcon значок для пунктов с пустым или некорректным значком.
const DefaultIcon = "bi-question-circle"

// Item пункт меню.
type Item struct {
	Endpoint string `json:"endpoint"`
	Label    string `json:"label"`
	LabelKey string `json:"label_key"`
	Icon     string `json:"icon"`
	URL      string `json:"url"`
}

// Menu инструменты и навигация одной роли.
type Menu struct {
	Tools []Item `json:"tools"`
	Nav   []Item `json:"nav"`
}

// Tables меню всех ролей.
type Tables struct {
	byRole map[string]Menu
}

var traderTools = []Item{
	{Endpoint: "dashboard.index", Label: "Dashboard", LabelKey: "dashboard_summary", Icon: "bi-bar-chart-line"},
	{Endpoint: "receipts.index", Label: "Receipts", LabelKey: "receipts_dashboard", Icon: "bi-cash-coin"},
	{Endpoint: "debtors.index", Label: "Debtors", LabelKey: "debtors_dashboard", Icon: "bi-person-plus"},
	{Endpoint: "creditors.index", Label: "Creditors", LabelKey: "creditors_dashboard", Icon: "bi-arrow-up-circle"},
	{Endpoint: "inventory.index", Label: "Inventory", LabelKey: "inventory_dashboard", Icon: "bi-box-seam"},
	{Endpoint: "payments.index", Label: "Payments", LabelKey: "payments_dashboard", Icon: "bi-calculator"},
	{Endpoint: "reports.index", Label: "Profit Summary", LabelKey: "profit_summary", Icon: "bi-graph-up-arrow"},
}

var traderNav = []Item{
	{Endpoint: "receipts.index", Label: "Receipts", LabelKey: "receipts_dashboard", Icon: "bi-cash-coin"},
	{Endpoint: "debtors.index", Label: "Debtors", LabelKey: "debtors_dashboard", Icon: "bi-person-plus"},
	{Endpoint: "reports.index", Label: "Profit Summary", LabelKey: "profit_summary", Icon: "bi-graph-up-arrow"},
	{Endpoint: "settings.profile", Label: "Profile", LabelKey: "profile_settings", Icon: "bi-person"},
}

var adminTools = []Item{
	{Endpoint: "dashboard.index", Label: "Dashboard", LabelKey: "dashboard_summary", Icon: "bi-bar-chart-line"},
	{Endpoint: "admin.dashboard", Label: "Dashboard", LabelKey: "admin_dashboard", Icon: "bi-speedometer"},
	{Endpoint: "admin.manage_users", Label: "Manage Users", LabelKey: "admin_manage_users", Icon: "bi-people"},
}

var adminNav = []Item{
	{Endpoint: "admin.dashboard", Label: "Dashboard", LabelKey: "admin_dashboard", Icon: "bi-speedometer"},
	{Endpoint: "admin.manage_users", Label: "Users", LabelKey: "admin_manage_users", Icon: "bi-people"},
}

// Build разрешает адреса пунктов по таблице paths (endpoint -> путь).
// Пункты без endpoint пропускаются, для неизвестного endpoint адрес "#".
func Build(paths map[string]string, log *slog.Logger) *Tables {
	resolve := func(items []Item) []Item {
		out := make([]Item, 0, len(items))
		for _, it := range items {
			if it.Endpoint == "" {
				log.Error("navigation item without endpoint", slog.String("label", it.Label))
				continue
			}
			if !strings.HasPrefix(it.Icon, "bi-") {
				log.Warn("invalid navigation icon", slog.String("label", it.Label), slog.String("icon", it.Icon))
				it.Icon = DefaultIcon
			}
			url, ok := paths[it.Endpoint]
			if !ok || url == "" {
				url = "#"
			}
			it.URL = url
			out = append(out, it)
		}
		return out
	}

	trader := Menu{Tools: resolve(traderTools), Nav: resolve(traderNav)}
	admin := Menu{Tools: resolve(adminTools), Nav: resolve(adminNav)}
	return &Tables{byRole: map[string]Menu{
		models.RoleTrader:  trader,
		models.RoleStartup: trader,
		models.RoleAdmin:   admin,
	}}
}

// For возвращает меню роли; для неизвестной роли меню пустое.
func (t *Tables) For(role string) Menu {
	m, ok := t.byRole[role]
	if !ok {
		return Menu{Tools: []Item{}, Nav: []Item{}}
	}
	return m
}
