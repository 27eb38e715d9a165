package store

import (
	"context"
	"errors"
)

var (
	// ErrNoTransaction is returned by Commit/Rollback when the context carries
	// no open unit of work.
	ErrNoTransaction = errors.New("no transaction in progress")

	// ErrTransactionInProgress is returned by Begin when the context already
	// carries an open unit of work.
	ErrTransactionInProgress = errors.New("transaction already in progress")
)

// UnitOfWork brackets several repository writes in a single storage
// transaction. Begin returns a derived context that repositories use to join
// the transaction; Commit and Rollback must be called with that context.
type UnitOfWork interface {
	Begin(ctx context.Context) (context.Context, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Run executes fn inside a unit of work, committing when fn succeeds and
// rolling back otherwise.
func Run(ctx context.Context, uow UnitOfWork, fn func(ctx context.Context) error) error {
	txCtx, err := uow.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		if rbErr := uow.Rollback(txCtx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return uow.Commit(txCtx)
}
