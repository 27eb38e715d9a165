package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/walletpay/walletpay/internal/store"
)

type memoryRepository struct {
	mu      sync.RWMutex
	storage map[string]Wallet // keyed by wallet id
}

// NewMemoryRepository constructs an in-memory repository for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{storage: make(map[string]Wallet)}
}

func (r *memoryRepository) Create(ctx context.Context, wallet *Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.storage[wallet.ID]; exists {
		return errors.New("wallet exists")
	}
	for _, w := range r.storage {
		if w.UserID == wallet.UserID {
			return errors.New("user already owns a wallet")
		}
	}
	r.storage[wallet.ID] = *wallet
	id := wallet.ID
	store.Track(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.storage, id)
	})
	return nil
}

// FindByUserID returns a copy; callers never alias stored state.
func (r *memoryRepository) FindByUserID(_ context.Context, userID string) (*Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, w := range r.storage {
		if w.UserID == userID {
			found := w
			return &found, nil
		}
	}
	return nil, ErrWalletNotFound
}

func (r *memoryRepository) Update(ctx context.Context, id string, wallet *Wallet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.storage[id]
	if !ok {
		return ErrWalletNotFound
	}
	previous := current.balance
	current.balance = wallet.Balance()
	r.storage[id] = current
	store.Track(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if w, ok := r.storage[id]; ok {
			w.balance = previous
			r.storage[id] = w
		}
	})
	return nil
}
