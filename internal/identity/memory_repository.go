package identity

import (
	"context"
	"sync"

	"github.com/walletpay/walletpay/internal/store"
)

type memoryRepository struct {
	mu    sync.RWMutex
	users map[string]User // keyed by normalized document number
}

// NewMemoryRepository builds an in-memory user store for testing.
func NewMemoryRepository() Repository {
	return &memoryRepository{users: make(map[string]User)}
}

func (r *memoryRepository) Create(ctx context.Context, user User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := user.Document.String()
	if _, exists := r.users[key]; exists {
		return ErrDocumentNumberInUse
	}
	r.users[key] = user
	store.Track(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.users, key)
	})
	return nil
}

func (r *memoryRepository) FindByDocumentNumber(_ context.Context, doc DocumentNumber) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[doc.String()]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) ExistsByDocumentNumber(_ context.Context, doc DocumentNumber) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[doc.String()]
	return ok, nil
}

func (r *memoryRepository) ExistsByID(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if user.ID == id {
			return true, nil
		}
	}
	return false, nil
}
