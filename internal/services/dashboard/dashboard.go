// Package dashboard собирает сводку по записям пользователя для главной
// страницы: количества и суммы по типам, последние записи, недельную
// прибыль и признаки, требующие внимания.
//
// Ошибка отдельного запроса не прерывает сборку: поле получает значение
// по умолчанию, а в Summary.Warnings добавляется предупреждение. Если
// хранилище недоступно целиком, возвращается сводка из значений по
// умолчанию с Critical = true.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/lib/day"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sanitize"
	"github.com/magabrotheeeer/bookkeeper/internal/lib/sl"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/repository"
)

// RecentLimit сколько последних записей каждого типа попадает в сводку.
const RecentLimit = 5

// WeekDays длина ряда недельной прибыли.
const WeekDays = 7

// Repository запросы к хранилищу записей.
type Repository interface {
	Ping(ctx context.Context) error
	CountByType(ctx context.Context, userUID string, coll models.Collection, recordType string) (int, error)
	SumByType(ctx context.Context, userUID string, coll models.Collection, recordType, field string) (decimal.Decimal, error)
	SumInRange(ctx context.Context, userUID string, coll models.Collection, recordType string, from, to time.Time) (decimal.Decimal, error)
	RecentRecords(ctx context.Context, userUID, recordType string, limit int) ([]models.Record, error)
	RecentCashflows(ctx context.Context, userUID, cashflowType string, limit int) ([]models.Cashflow, error)
	ListUnpaid(ctx context.Context, userUID, recordType string) ([]models.Record, error)
	HasInventoryLoss(ctx context.Context, userUID string) (bool, error)
	HasSaleOrExpenseSince(ctx context.Context, userUID string, since time.Time) (bool, error)
}

// Recorder учитывает поля, выданные по умолчанию.
type Recorder interface {
	Degraded(field string)
}

// Options режим построения сводки.
type Options struct {
	// TaxPrepMode оставляет только чистую прибыль за всё время.
	TaxPrepMode bool
}

// Aggregate количество записей типа и сумма по ним.
type Aggregate struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// Stats агрегаты сводки. В режиме подготовки к налогам заполнен только ProfitOnly.
type Stats struct {
	Debtors    Aggregate        `json:"debtors"`
	Creditors  Aggregate        `json:"creditors"`
	Funds      Aggregate        `json:"funds"`
	Forecasts  Aggregate        `json:"forecasts"`
	Payments   Aggregate        `json:"payments"`
	Receipts   Aggregate        `json:"receipts"`
	ProfitOnly *decimal.Decimal `json:"profit_only,omitempty"`
}

// Summary сводка для дашборда.
type Summary struct {
	Stats           Stats             `json:"stats"`
	TaxPrepMode     bool              `json:"tax_prep_mode"`
	RecentCreditors []models.Record   `json:"recent_creditors"`
	RecentDebtors   []models.Record   `json:"recent_debtors"`
	RecentFunds     []models.Record   `json:"recent_funds"`
	RecentPayments  []models.Cashflow `json:"recent_payments"`
	RecentReceipts  []models.Cashflow `json:"recent_receipts"`
	Warnings        []string          `json:"warnings,omitempty"`
	Critical        bool              `json:"critical"`
}

// DayProfit прибыль за одни UTC-сутки.
type DayProfit struct {
	Label  string          `json:"label"`
	Date   time.Time       `json:"date"`
	Profit decimal.Decimal `json:"profit"`
}

// Service строит сводки.
type Service struct {
	repo    Repository
	metrics Recorder
	log     *slog.Logger
}

// NewService создаёт сервис сводок.
func NewService(repo Repository, metrics Recorder, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: metrics,
		log:     log,
	}
}

func emptySummary(opts Options) *Summary {
	return &Summary{
		TaxPrepMode:     opts.TaxPrepMode,
		RecentCreditors: []models.Record{},
		RecentDebtors:   []models.Record{},
		RecentFunds:     []models.Record{},
		RecentPayments:  []models.Cashflow{},
		RecentReceipts:  []models.Cashflow{},
	}
}

type aggregateSpec struct {
	field      string
	coll       models.Collection
	recordType string
	sumField   string
	target     func(*Stats) *Aggregate
}

var aggregateSpecs = []aggregateSpec{
	{"debtors", models.Records, models.TypeDebtor, repository.FieldAmountOwed, func(s *Stats) *Aggregate { return &s.Debtors }},
	{"creditors", models.Records, models.TypeCreditor, repository.FieldAmountOwed, func(s *Stats) *Aggregate { return &s.Creditors }},
	{"funds", models.Records, models.TypeFund, repository.FieldAmount, func(s *Stats) *Aggregate { return &s.Funds }},
	{"forecasts", models.Records, models.TypeForecast, repository.FieldProjectedRevenue, func(s *Stats) *Aggregate { return &s.Forecasts }},
	{"payments", models.Cashflows, models.TypePayment, repository.FieldAmount, func(s *Stats) *Aggregate { return &s.Payments }},
	{"receipts", models.Cashflows, models.TypeReceipt, repository.FieldAmount, func(s *Stats) *Aggregate { return &s.Receipts }},
}

// BuildSummary строит сводку пользователя. Метод не возвращает ошибок:
// сбои отражаются в Warnings и Critical.
func (s *Service) BuildSummary(ctx context.Context, userUID string, now time.Time, opts Options) *Summary {
	const op = "dashboard.BuildSummary"
	log := s.log.With(slog.String("op", op), sl.User(userUID))

	sum := emptySummary(opts)
	if err := s.repo.Ping(ctx); err != nil {
		log.Error("record store unavailable", sl.Err(err))
		s.metrics.Degraded("all")
		sum.Critical = true
		sum.Warnings = append(sum.Warnings, "Data is temporarily unavailable. Showing empty dashboard.")
		return sum
	}

	if opts.TaxPrepMode {
		profit, err := s.profitAllTime(ctx, userUID)
		if err != nil {
			s.degrade(log, sum, "profit_only", err)
		}
		sum.Stats.ProfitOnly = &profit
	} else {
		for _, spec := range aggregateSpecs {
			agg, err := s.aggregate(ctx, userUID, spec)
			if err != nil {
				s.degrade(log, sum, spec.field, err)
				continue
			}
			*spec.target(&sum.Stats) = agg
		}
	}

	if recs, err := s.repo.RecentRecords(ctx, userUID, models.TypeCreditor, RecentLimit); err != nil {
		s.degrade(log, sum, "recent_creditors", err)
	} else {
		sum.RecentCreditors = cleanRecords(recs)
	}
	if recs, err := s.repo.RecentRecords(ctx, userUID, models.TypeDebtor, RecentLimit); err != nil {
		s.degrade(log, sum, "recent_debtors", err)
	} else {
		sum.RecentDebtors = cleanRecords(recs)
	}
	if recs, err := s.repo.RecentRecords(ctx, userUID, models.TypeFund, RecentLimit); err != nil {
		s.degrade(log, sum, "recent_funds", err)
	} else {
		sum.RecentFunds = cleanRecords(recs)
	}
	if flows, err := s.repo.RecentCashflows(ctx, userUID, models.TypePayment, RecentLimit); err != nil {
		s.degrade(log, sum, "recent_payments", err)
	} else {
		sum.RecentPayments = cleanCashflows(flows)
	}
	if flows, err := s.repo.RecentCashflows(ctx, userUID, models.TypeReceipt, RecentLimit); err != nil {
		s.degrade(log, sum, "recent_receipts", err)
	} else {
		sum.RecentReceipts = cleanCashflows(flows)
	}

	return sum
}

func (s *Service) aggregate(ctx context.Context, userUID string, spec aggregateSpec) (Aggregate, error) {
	count, err := s.repo.CountByType(ctx, userUID, spec.coll, spec.recordType)
	if err != nil {
		return Aggregate{}, err
	}
	amount, err := s.repo.SumByType(ctx, userUID, spec.coll, spec.recordType, spec.sumField)
	if err != nil {
		return Aggregate{}, err
	}
	return Aggregate{Count: count, Amount: amount}, nil
}

func (s *Service) profitAllTime(ctx context.Context, userUID string) (decimal.Decimal, error) {
	sales, err := s.repo.SumByType(ctx, userUID, models.Records, models.TypeSale, repository.FieldAmount)
	if err != nil {
		return decimal.Zero, err
	}
	expenses, err := s.repo.SumByType(ctx, userUID, models.Records, models.TypeExpense, repository.FieldAmount)
	if err != nil {
		return decimal.Zero, err
	}
	return sales.Sub(expenses), nil
}

func (s *Service) degrade(log *slog.Logger, sum *Summary, field string, err error) {
	log.Warn("dashboard field degraded", slog.String("field", field), sl.Err(err))
	s.metrics.Degraded(field)
	sum.Warnings = append(sum.Warnings, fmt.Sprintf("Could not load %s.", field))
}

// WeeklyProfitSeries возвращает прибыль (продажи минус расходы) за каждые из
// последних семи UTC-суток, от старых к новым, включая сутки now. Сутки,
// для которых запрос не удался, дают нулевую прибыль.
func (s *Service) WeeklyProfitSeries(ctx context.Context, userUID string, now time.Time) []DayProfit {
	const op = "dashboard.WeeklyProfitSeries"
	log := s.log.With(slog.String("op", op), sl.User(userUID))

	days := day.Trailing(now, WeekDays)
	series := make([]DayProfit, 0, len(days))
	for _, d := range days {
		entry := DayProfit{Label: day.Label(d), Date: d, Profit: decimal.Zero}
		from, to := day.Bounds(d)
		sales, err := s.repo.SumInRange(ctx, userUID, models.Records, models.TypeSale, from, to)
		if err == nil {
			var expenses decimal.Decimal
			expenses, err = s.repo.SumInRange(ctx, userUID, models.Records, models.TypeExpense, from, to)
			if err == nil {
				entry.Profit = sales.Sub(expenses)
			}
		}
		if err != nil {
			log.Warn("daily profit degraded", slog.Time("day", d), sl.Err(err))
			s.metrics.Degraded("weekly_profit")
		}
		series = append(series, entry)
	}
	return series
}

// UnpaidPositions возвращает дебиторов и кредиторов с непогашенным долгом.
func (s *Service) UnpaidPositions(ctx context.Context, userUID string) ([]models.Record, []models.Record, error) {
	const op = "dashboard.UnpaidPositions"
	debtors, err := s.repo.ListUnpaid(ctx, userUID, models.TypeDebtor)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	creditors, err := s.repo.ListUnpaid(ctx, userUID, models.TypeCreditor)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	return cleanRecords(debtors), cleanRecords(creditors), nil
}

// DetectInventoryLoss сообщает, есть ли товар с себестоимостью выше ожидаемой маржи.
func (s *Service) DetectInventoryLoss(ctx context.Context, userUID string) (bool, error) {
	const op = "dashboard.DetectInventoryLoss"
	loss, err := s.repo.HasInventoryLoss(ctx, userUID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return loss, nil
}

// NeedsDailyLogReminder true, если за текущие UTC-сутки не внесено ни продаж, ни расходов.
func (s *Service) NeedsDailyLogReminder(ctx context.Context, userUID string, now time.Time) (bool, error) {
	const op = "dashboard.NeedsDailyLogReminder"
	logged, err := s.repo.HasSaleOrExpenseSince(ctx, userUID, day.Start(now))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return !logged, nil
}

// cleanRecords возвращает копию записей с очищенными текстовыми полями и датами в UTC.
// Подстановки для пустых текстовых полей в списках дашборда.
const (
	NoDescription = "No description provided"
	NoContact     = "N/A"
)

func cleanRecords(in []models.Record) []models.Record {
	out := make([]models.Record, len(in))
	for i, r := range in {
		r.Name = sanitize.String(r.Name, sanitize.NameMaxLen)
		r.Description = sanitize.WithDefault(r.Description, NoDescription, sanitize.DescriptionMaxLen)
		r.Contact = sanitize.WithDefault(r.Contact, NoContact, sanitize.ContactMaxLen)
		r.CreatedAt = day.UTC(r.CreatedAt)
		r.ReminderDate = day.UTCPtr(r.ReminderDate)
		out[i] = r
	}
	return out
}

func cleanCashflows(in []models.Cashflow) []models.Cashflow {
	out := make([]models.Cashflow, len(in))
	for i, c := range in {
		c.Description = sanitize.WithDefault(c.Description, NoDescription, sanitize.DescriptionMaxLen)
		c.CreatedAt = day.UTC(c.CreatedAt)
		out[i] = c
	}
	return out
}
