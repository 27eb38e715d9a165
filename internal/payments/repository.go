package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/walletpay/walletpay/internal/store"
)

// TransactionRepository persists transfer attempts.
type TransactionRepository interface {
	Create(ctx context.Context, tx *Transaction) error
	FindByID(ctx context.Context, id string) (*Transaction, error)
}

// PostgresTransactionRepository stores transactions in PostgreSQL.
type PostgresTransactionRepository struct {
	db *pgxpool.Pool
}

// NewPostgresTransactionRepository builds a Postgres-backed repository.
func NewPostgresTransactionRepository(db *pgxpool.Pool) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{db: db}
}

func (r *PostgresTransactionRepository) Create(ctx context.Context, tx *Transaction) error {
	id, err := uuid.Parse(tx.ID)
	if err != nil {
		return fmt.Errorf("parse transaction id: %w", err)
	}
	payer, err := uuid.Parse(tx.PayerWalletID)
	if err != nil {
		return fmt.Errorf("parse payer wallet id: %w", err)
	}
	payee, err := uuid.Parse(tx.PayeeWalletID)
	if err != nil {
		return fmt.Errorf("parse payee wallet id: %w", err)
	}
	_, err = store.Conn(ctx, r.db).Exec(ctx, `INSERT INTO transactions (id, payer_wallet_id, payee_wallet_id, value, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)`, id, payer, payee, tx.Value, string(tx.Status()), tx.CreatedAt.UTC())
	return err
}

func (r *PostgresTransactionRepository) FindByID(ctx context.Context, id string) (*Transaction, error) {
	txID, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrTransactionNotFound
	}
	var (
		rowID     uuid.UUID
		payer     uuid.UUID
		payee     uuid.UUID
		value     int64
		status    string
		createdAt time.Time
	)
	err = store.Conn(ctx, r.db).QueryRow(ctx, `SELECT id, payer_wallet_id, payee_wallet_id, value, status, created_at
        FROM transactions WHERE id = $1`, txID).Scan(&rowID, &payer, &payee, &value, &status, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return NewTransaction(rowID.String(), payer.String(), payee.String(), value, Status(status), createdAt.UTC())
}
