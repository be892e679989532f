// Package metrics собирает метрики Prometheus сервиса: HTTP-запросы,
// обращения к платёжному шлюзу, начисления наград и деградацию дашборда.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор счётчиков и гистограмм сервиса.
type Metrics struct {
	HTTPDuration     *prometheus.HistogramVec
	GatewayRequests  *prometheus.CounterVec
	RewardCredits    prometheus.Counter
	Redemptions      *prometheus.CounterVec
	DashboardDegrade *prometheus.CounterVec
	Activations      *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookkeeper",
			Name:      "http_request_duration_seconds",
			Help:      "Длительность обработки HTTP-запросов.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		GatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Name:      "gateway_requests_total",
			Help:      "Обращения к платёжному шлюзу по операции и исходу.",
		}, []string{"operation", "outcome"}),
		RewardCredits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Name:      "reward_credits_total",
			Help:      "Засчитанные дни активности.",
		}),
		Redemptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Name:      "reward_redemptions_total",
			Help:      "Попытки обмена баллов по исходу.",
		}, []string{"outcome"}),
		DashboardDegrade: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Name:      "dashboard_degraded_fields_total",
			Help:      "Поля дашборда, заменённые значением по умолчанию из-за ошибки.",
		}, []string{"field"}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookkeeper",
			Name:      "subscription_activations_total",
			Help:      "Активации подписки по источнику.",
		}, []string{"source"}),
	}
	reg.MustRegister(
		m.HTTPDuration,
		m.GatewayRequests,
		m.RewardCredits,
		m.Redemptions,
		m.DashboardDegrade,
		m.Activations,
	)
	return m
}

// ObserveHTTP фиксирует длительность запроса.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// GatewayCall фиксирует обращение к шлюзу.
func (m *Metrics) GatewayCall(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.GatewayRequests.WithLabelValues(operation, outcome).Inc()
}

// Degraded фиксирует поле дашборда, выданное по умолчанию.
func (m *Metrics) Degraded(field string) {
	m.DashboardDegrade.WithLabelValues(field).Inc()
}

// Credited фиксирует засчитанный день активности.
func (m *Metrics) Credited() {
	m.RewardCredits.Inc()
}

// Redeemed фиксирует исход обмена баллов.
func (m *Metrics) Redeemed(outcome string) {
	m.Redemptions.WithLabelValues(outcome).Inc()
}

// Activated фиксирует активацию подписки из источника source (callback, webhook).
func (m *Metrics) Activated(source string) {
	m.Activations.WithLabelValues(source).Inc()
}
