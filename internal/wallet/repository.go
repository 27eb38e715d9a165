package wallet

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

// Repository persists wallets.
type Repository interface {
	FindByUserID(ctx context.Context, userID string) (*Wallet, error)
	Create(ctx context.Context, wallet *Wallet) error
	Update(ctx context.Context, id string, wallet *Wallet) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record.
func (r *PostgresRepository) Create(ctx context.Context, wallet *Wallet) error {
	walletID, err := uuid.Parse(wallet.ID)
	if err != nil {
		return fmt.Errorf("parse wallet id: %w", err)
	}
	userID, err := uuid.Parse(wallet.UserID)
	if err != nil {
		return fmt.Errorf("parse user id: %w", err)
	}
	_, err = store.Conn(ctx, r.db).Exec(ctx, `INSERT INTO wallets (id, user_id, balance, created_at)
        VALUES ($1, $2, $3, $4)`, walletID, userID, wallet.Balance(), wallet.CreatedAt.UTC())
	return err
}

// FindByUserID loads the wallet owned by userID. Inside a unit of work the row
// stays locked until commit or rollback.
func (r *PostgresRepository) FindByUserID(ctx context.Context, userID string) (*Wallet, error) {
	ownerID, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrWalletNotFound
	}
	query := `SELECT id, user_id, balance, created_at FROM wallets WHERE user_id = $1`
	if store.InTransaction(ctx) {
		query += ` FOR UPDATE`
	}
	var (
		id        uuid.UUID
		owner     uuid.UUID
		balance   int64
		createdAt time.Time
	)
	if err := store.Conn(ctx, r.db).QueryRow(ctx, query, ownerID).Scan(&id, &owner, &balance, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return New(id.String(), owner.String(), balance, createdAt.UTC())
}

// Update writes the wallet balance.
func (r *PostgresRepository) Update(ctx context.Context, id string, wallet *Wallet) error {
	walletID, err := uuid.Parse(id)
	if err != nil {
		return ErrWalletNotFound
	}
	tag, err := store.Conn(ctx, r.db).Exec(ctx, `UPDATE wallets SET balance = $2 WHERE id = $1`, walletID, wallet.Balance())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrWalletNotFound
	}
	return nil
}
