package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txKey struct{}

// Querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresUnitOfWork opens a pgx transaction and carries it in the context.
type PostgresUnitOfWork struct {
	db   *pgxpool.Pool
	opts pgx.TxOptions
}

// NewPostgresUnitOfWork builds a unit of work on top of the pool. Wallet rows
// are locked with SELECT ... FOR UPDATE inside the transaction, so read
// committed isolation is enough to keep concurrent transfers from
// overspending a shared wallet.
func NewPostgresUnitOfWork(db *pgxpool.Pool) *PostgresUnitOfWork {
	return &PostgresUnitOfWork{db: db, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// Begin starts a transaction and returns a context bound to it.
func (u *PostgresUnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if InTransaction(ctx) {
		return ctx, ErrTransactionInProgress
	}
	tx, err := u.db.BeginTx(ctx, u.opts)
	if err != nil {
		return ctx, fmt.Errorf("begin transaction: %w", err)
	}
	return context.WithValue(ctx, txKey{}, tx), nil
}

// Commit commits the transaction bound to ctx.
func (u *PostgresUnitOfWork) Commit(ctx context.Context) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return ErrNoTransaction
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction bound to ctx.
func (u *PostgresUnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	if !ok {
		return ErrNoTransaction
	}
	// rollback must reach the server even if the request context is done
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("rollback transaction: %w", err)
	}
	return nil
}

// Conn returns the transaction bound to ctx, or the pool when there is none.
func Conn(ctx context.Context, db *pgxpool.Pool) Querier {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return db
}

// InTransaction reports whether ctx carries an open unit of work of either kind.
func InTransaction(ctx context.Context) bool {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return true
	}
	j, ok := ctx.Value(journalKey{}).(*journal)
	return ok && !j.done
}
