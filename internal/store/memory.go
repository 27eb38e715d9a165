package store

import (
	"context"
	"sync"
)

type journalKey struct{}

type journal struct {
	owner *MemoryUnitOfWork
	undo  []func()
	done  bool
}

// MemoryUnitOfWork serializes units of work over the in-memory repositories.
// Repositories register undo actions through Track; Rollback replays them in
// reverse order.
type MemoryUnitOfWork struct {
	mu sync.Mutex
}

// NewMemoryUnitOfWork constructs an in-memory unit of work for tests and
// database-less development runs.
func NewMemoryUnitOfWork() *MemoryUnitOfWork {
	return &MemoryUnitOfWork{}
}

func (u *MemoryUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok && !j.done {
		return ctx, ErrTransactionInProgress
	}
	u.mu.Lock()
	return context.WithValue(ctx, journalKey{}, &journal{owner: u}), nil
}

func (u *MemoryUnitOfWork) Commit(ctx context.Context) error {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok || j.done || j.owner != u {
		return ErrNoTransaction
	}
	j.done = true
	j.undo = nil
	u.mu.Unlock()
	return nil
}

func (u *MemoryUnitOfWork) Rollback(ctx context.Context) error {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok || j.done || j.owner != u {
		return ErrNoTransaction
	}
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.done = true
	j.undo = nil
	u.mu.Unlock()
	return nil
}

// Track registers undo on the in-memory unit of work carried by ctx. Outside
// a unit of work it does nothing.
func Track(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok && !j.done {
		j.undo = append(j.undo, undo)
	}
}
