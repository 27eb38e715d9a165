package wallet

import (
	"errors"
	"math"
	"time"
)

var (
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must not be negative")
	ErrNegativeBalance     = errors.New("balance must not be negative")
	ErrBalanceOverflow     = errors.New("balance would exceed the maximum")
)

// Wallet holds a user's balance in minor currency units. The balance is only
// changed through Pay and Receive, which keep it non-negative.
type Wallet struct {
	ID        string
	UserID    string
	CreatedAt time.Time

	balance int64
}

// New rebuilds a wallet, rejecting a negative opening balance.
func New(id, userID string, balance int64, createdAt time.Time) (*Wallet, error) {
	if balance < 0 {
		return nil, ErrNegativeBalance
	}
	return &Wallet{ID: id, UserID: userID, CreatedAt: createdAt, balance: balance}, nil
}

// Balance returns the current balance in minor units.
func (w *Wallet) Balance() int64 {
	return w.balance
}

// Pay debits value. On error the balance is left untouched.
func (w *Wallet) Pay(value int64) error {
	if value < 0 {
		return ErrInvalidAmount
	}
	if value > w.balance {
		return ErrInsufficientBalance
	}
	w.balance -= value
	return nil
}

// Receive credits value. On error the balance is left untouched.
func (w *Wallet) Receive(value int64) error {
	if value < 0 {
		return ErrInvalidAmount
	}
	if value > math.MaxInt64-w.balance {
		return ErrBalanceOverflow
	}
	w.balance += value
	return nil
}
