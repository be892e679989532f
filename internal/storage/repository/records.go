package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// Поля сумм, по которым допускается агрегирование.
const (
	FieldAmount           = "amount"
	FieldAmountOwed       = "amount_owed"
	FieldProjectedRevenue = "projected_revenue"
)

var sumFields = map[string]bool{
	FieldAmount:           true,
	FieldAmountOwed:       true,
	FieldProjectedRevenue: true,
}

func tableFor(coll models.Collection) (string, error) {
	switch coll {
	case models.Records, models.Cashflows:
		return string(coll), nil
	default:
		return "", fmt.Errorf("unknown collection %q", coll)
	}
}

// CountByType считает записи пользователя заданного типа.
func (s *Storage) CountByType(ctx context.Context, userUID string, coll models.Collection, recordType string) (int, error) {
	const op = "storage.CountByType"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := tableFor(coll)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE user_uid = $1 AND type = $2`, table)
	var count int
	if err := s.DB.QueryRowContext(ctx, query, userUID, recordType).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// SumByType суммирует поле field по записям пользователя заданного типа.
// Отсутствующие значения считаются нулём.
func (s *Storage) SumByType(ctx context.Context, userUID string, coll models.Collection, recordType, field string) (decimal.Decimal, error) {
	const op = "storage.SumByType"
	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := tableFor(coll)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	if !sumFields[field] {
		return decimal.Zero, fmt.Errorf("%s: unknown field %q", op, field)
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(%s), 0) FROM %s WHERE user_uid = $1 AND type = $2`, field, table)
	var sum decimal.Decimal
	if err := s.DB.QueryRowContext(ctx, query, userUID, recordType).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

// SumInRange суммирует amount по записям типа recordType, созданным в [from, to).
func (s *Storage) SumInRange(ctx context.Context, userUID string, coll models.Collection, recordType string, from, to time.Time) (decimal.Decimal, error) {
	const op = "storage.SumInRange"
	select {
	case <-ctx.Done():
		return decimal.Zero, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	table, err := tableFor(coll)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	query := fmt.Sprintf(`SELECT COALESCE(SUM(amount), 0) FROM %s
		WHERE user_uid = $1 AND type = $2 AND created_at >= $3 AND created_at < $4`, table)
	var sum decimal.Decimal
	if err := s.DB.QueryRowContext(ctx, query, userUID, recordType, from, to).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

const recordColumns = `id, user_uid, type, COALESCE(name, ''), COALESCE(description, ''), COALESCE(contact, ''),
	amount, amount_owed, projected_revenue, cost, expected_margin,
	COALESCE(status, ''), reminder_date, created_at`

// RecentRecords возвращает последние limit записей типа recordType, новые первыми.
func (s *Storage) RecentRecords(ctx context.Context, userUID, recordType string, limit int) ([]models.Record, error) {
	const op = "storage.RecentRecords"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recordColumns + `
		FROM records
		WHERE user_uid = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, recordType, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// RecentCashflows возвращает последние limit движений типа cashflowType, новые первыми.
func (s *Storage) RecentCashflows(ctx context.Context, userUID, cashflowType string, limit int) ([]models.Cashflow, error) {
	const op = "storage.RecentCashflows"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, type, amount, COALESCE(description, ''), created_at
		FROM cashflows
		WHERE user_uid = $1 AND type = $2
		ORDER BY created_at DESC
		LIMIT $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, cashflowType, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Cashflow
	for rows.Next() {
		var c models.Cashflow
		if err := rows.Scan(&c.ID, &c.UserUID, &c.Type, &c.Amount, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListUnpaid возвращает дебиторов или кредиторов с положительным долгом,
// не отмеченных как погашенные.
func (s *Storage) ListUnpaid(ctx context.Context, userUID, recordType string) ([]models.Record, error) {
	const op = "storage.ListUnpaid"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recordColumns + `
		FROM records
		WHERE user_uid = $1 AND type = $2 AND amount_owed > 0
		  AND (status IS NULL OR status <> 'paid')
		ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID, recordType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

// HasInventoryLoss сообщает, есть ли товар, чья себестоимость превышает ожидаемую маржу.
func (s *Storage) HasInventoryLoss(ctx context.Context, userUID string) (bool, error) {
	const op = "storage.HasInventoryLoss"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
		SELECT 1 FROM records
		WHERE user_uid = $1 AND type = 'inventory' AND cost > expected_margin
	)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// HasQualifyingActivity сообщает, были ли у пользователя в [from, to) учётные
// действия, засчитываемые в серию: записи о долгах, фондах, платежах и поступлениях.
func (s *Storage) HasQualifyingActivity(ctx context.Context, userUID string, from, to time.Time) (bool, error) {
	const op = "storage.HasQualifyingActivity"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
		SELECT 1 FROM records
		WHERE user_uid = $1
		  AND type IN ('debtor', 'creditor', 'fund', 'receipt', 'payment')
		  AND created_at >= $2 AND created_at < $3
	) OR EXISTS (
		SELECT 1 FROM cashflows
		WHERE user_uid = $1
		  AND type IN ('receipt', 'payment')
		  AND created_at >= $2 AND created_at < $3
	)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, from, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// HasSaleOrExpenseSince сообщает, вносил ли пользователь продажи или расходы начиная с since.
func (s *Storage) HasSaleOrExpenseSince(ctx context.Context, userUID string, since time.Time) (bool, error) {
	const op = "storage.HasSaleOrExpenseSince"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
		SELECT 1 FROM records
		WHERE user_uid = $1 AND type IN ('sale', 'expense') AND created_at >= $2
	)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateRecord сохраняет финансовую запись и возвращает её ID.
func (s *Storage) CreateRecord(ctx context.Context, rec models.Record) (int64, error) {
	const op = "storage.CreateRecord"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO records (user_uid, type, name, description, contact,
			      amount, amount_owed, projected_revenue, cost, expected_margin,
			      status, reminder_date, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		rec.UserUID, rec.Type, nullString(rec.Name), nullString(rec.Description), nullString(rec.Contact),
		nullDecimal(rec.Amount), nullDecimal(rec.AmountOwed), nullDecimal(rec.ProjectedRevenue),
		nullDecimal(rec.Cost), nullDecimal(rec.ExpectedMargin),
		nullString(rec.Status), nullTime(rec.ReminderDate), rec.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// CreateCashflow сохраняет платёж или поступление и возвращает его ID.
func (s *Storage) CreateCashflow(ctx context.Context, c models.Cashflow) (int64, error) {
	const op = "storage.CreateCashflow"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO cashflows (user_uid, type, amount, description, created_at)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING id`
	var id int64
	err := s.DB.QueryRowContext(ctx, query,
		c.UserUID, c.Type, c.Amount, nullString(c.Description), c.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListInventory возвращает товарные позиции пользователя, новые первыми.
func (s *Storage) ListInventory(ctx context.Context, userUID string) ([]models.Record, error) {
	const op = "storage.ListInventory"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + recordColumns + `
		FROM records
		WHERE user_uid = $1 AND type = 'inventory'
		ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return records, nil
}

func scanRecords(rows *sql.Rows) ([]models.Record, error) {
	var result []models.Record
	for rows.Next() {
		var (
			rec                                   models.Record
			amount, owed, projected, cost, margin decimal.NullDecimal
			reminder                              sql.NullTime
		)
		if err := rows.Scan(&rec.ID, &rec.UserUID, &rec.Type, &rec.Name, &rec.Description, &rec.Contact,
			&amount, &owed, &projected, &cost, &margin,
			&rec.Status, &reminder, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Amount = decimalPtr(amount)
		rec.AmountOwed = decimalPtr(owed)
		rec.ProjectedRevenue = decimalPtr(projected)
		rec.Cost = decimalPtr(cost)
		rec.ExpectedMargin = decimalPtr(margin)
		rec.ReminderDate = timePtr(reminder)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
