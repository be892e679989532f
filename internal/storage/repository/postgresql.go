// Package repository реализует хранилище данных на основе PostgreSQL:
// пользователи и их подписки, финансовые записи и движения денег,
// счётчики наград, квитанции ручной оплаты и журнал аудита.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/bookkeeper/internal/apperrors"
	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// NewWithDB оборачивает уже открытое соединение.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{DB: db}
}

// Ping проверяет, что хранилище отвечает.
func (s *Storage) Ping(ctx context.Context) error {
	const op = "storage.Ping"
	if err := s.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s: %w: %w", op, apperrors.ErrStorageUnavailable, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// ErrSchemaNotReady в базе нет таблиц, которые создают миграции.
var ErrSchemaNotReady = errors.New("database schema is not migrated")

// CheckReady проверяет, что миграции применены: таблица table существует.
// Используется процессами, которые сами миграции не запускают.
func (s *Storage) CheckReady(ctx context.Context, table string) error {
	const op = "storage.CheckReady"
	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`,
		table).Scan(&exists)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w: table %s", op, ErrSchemaNotReady, table)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertAudit(ctx context.Context, ex execer, entry models.AuditLog) error {
	details, err := json.Marshal(entry.Details)
	if err != nil {
		return err
	}
	_, err = ex.ExecContext(ctx,
		`INSERT INTO audit_logs (actor, action, details, created_at) VALUES ($1, $2, $3, $4)`,
		entry.Actor, entry.Action, details, entry.CreatedAt)
	return err
}

func rollback(tx *sql.Tx) {
	_ = tx.Rollback()
}
