// Package session хранит состояние пользовательской сессии в Redis:
// незавершённую оплату подписки между инициализацией и callback-ом шлюза.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/bookkeeper/internal/models"
)

const pendingPrefix = "session:pending_tx:"

// Store интерфейс хранилища ключ-значение, которым пользуется сессия.
type Store interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// PendingStore хранит незавершённые транзакции по идентификатору сессии.
type PendingStore struct {
	store Store
	ttl   time.Duration
}

// NewPendingStore создаёт хранилище с временем жизни записи ttl.
func NewPendingStore(store Store, ttl time.Duration) *PendingStore {
	return &PendingStore{store: store, ttl: ttl}
}

// Save запоминает транзакцию для сессии, заменяя предыдущую.
func (p *PendingStore) Save(ctx context.Context, sessionID string, tx models.PendingTransaction) error {
	const op = "session.Save"
	if err := p.store.Set(ctx, pendingPrefix+sessionID, tx, p.ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Get возвращает транзакцию сессии; nil, если её нет.
func (p *PendingStore) Get(ctx context.Context, sessionID string) (*models.PendingTransaction, error) {
	const op = "session.Get"
	var tx models.PendingTransaction
	found, err := p.store.Get(ctx, pendingPrefix+sessionID, &tx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return nil, nil
	}
	return &tx, nil
}

// Delete удаляет транзакцию сессии.
func (p *PendingStore) Delete(ctx context.Context, sessionID string) error {
	const op = "session.Delete"
	if err := p.store.Invalidate(ctx, pendingPrefix+sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
