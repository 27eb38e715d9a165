package payments

import (
	"context"
	"errors"
	"sync"

	"github.com/walletpay/walletpay/internal/store"
)

type memoryTransactionRepository struct {
	mu      sync.RWMutex
	storage map[string]Transaction
}

// NewMemoryTransactionRepository constructs an in-memory repository for tests.
func NewMemoryTransactionRepository() TransactionRepository {
	return &memoryTransactionRepository{storage: make(map[string]Transaction)}
}

func (r *memoryTransactionRepository) Create(ctx context.Context, tx *Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[tx.ID]; exists {
		return errors.New("transaction exists")
	}
	r.storage[tx.ID] = *tx
	id := tx.ID
	store.Track(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.storage, id)
	})
	return nil
}

func (r *memoryTransactionRepository) FindByID(_ context.Context, id string) (*Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tx, ok := r.storage[id]
	if !ok {
		return nil, ErrTransactionNotFound
	}
	return &tx, nil
}
