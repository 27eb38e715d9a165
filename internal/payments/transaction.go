package payments

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a transfer attempt.
type Status string

const (
	StatusPending       Status = "PENDING"
	StatusCompleted     Status = "COMPLETED"
	StatusNotAuthorized Status = "NOT_AUTHORIZED"
	// StatusCancelled and StatusRefunded are reserved; no flow reaches them yet.
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

var (
	ErrInvalidTransactionValue = errors.New("transaction value must be greater than zero")
	ErrInvalidPayee            = errors.New("payer and payee wallets must differ")
)

// Transaction records one attempt to move value between two wallets. Only
// the status changes after construction.
type Transaction struct {
	ID            string
	PayerWalletID string
	PayeeWalletID string
	Value         int64
	CreatedAt     time.Time

	status Status
}

// NewTransaction validates and builds a transaction. An empty status means
// pending; a zero createdAt means now.
func NewTransaction(id, payerWalletID, payeeWalletID string, value int64, status Status, createdAt time.Time) (*Transaction, error) {
	if value <= 0 {
		return nil, ErrInvalidTransactionValue
	}
	if payerWalletID == payeeWalletID {
		return nil, ErrInvalidPayee
	}
	if status == "" {
		status = StatusPending
	}
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	return &Transaction{
		ID:            id,
		PayerWalletID: payerWalletID,
		PayeeWalletID: payeeWalletID,
		Value:         value,
		CreatedAt:     createdAt,
		status:        status,
	}, nil
}

func (t *Transaction) Status() Status { return t.status }

// SetStatus moves the transaction to s. Callers own transition rules.
func (t *Transaction) SetStatus(s Status) { t.status = s }

func (t *Transaction) IsPending() bool { return t.status == StatusPending }

func (t *Transaction) IsNotAuthorized() bool { return t.status == StatusNotAuthorized }
