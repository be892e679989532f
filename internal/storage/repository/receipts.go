package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// CreateReceipt сохраняет квитанцию ручной оплаты вместе с записью аудита
// и возвращает её ID.
func (s *Storage) CreateReceipt(ctx context.Context, r models.PaymentReceipt) (int64, error) {
	const op = "storage.CreateReceipt"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rollback(tx)

	var id int64
	err = tx.QueryRowContext(ctx,
		`INSERT INTO payment_receipts (user_uid, filename, file_path, plan_type,
		     amount_paid, payment_date, status, uploaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		r.UserUID, r.Filename, r.FilePath, r.PlanType,
		r.AmountPaid, r.PaymentDate, r.Status, r.UploadedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	err = insertAudit(ctx, tx, models.AuditLog{
		Actor:  r.UserUID,
		Action: "receipt_uploaded",
		Details: map[string]any{
			"receipt_id": id,
			"filename":   r.Filename,
			"plan_type":  r.PlanType,
			"amount":     r.AmountPaid.String(),
		},
		CreatedAt: r.UploadedAt,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListReceipts возвращает квитанции пользователя, новые первыми.
func (s *Storage) ListReceipts(ctx context.Context, userUID string) ([]models.PaymentReceipt, error) {
	const op = "storage.ListReceipts"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, user_uid, filename, file_path, plan_type, amount_paid,
		     payment_date, status, uploaded_at
		 FROM payment_receipts
		 WHERE user_uid = $1
		 ORDER BY uploaded_at DESC`, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.PaymentReceipt
	for rows.Next() {
		var r models.PaymentReceipt
		if err := rows.Scan(&r.ID, &r.UserUID, &r.Filename, &r.FilePath, &r.PlanType,
			&r.AmountPaid, &r.PaymentDate, &r.Status, &r.UploadedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
