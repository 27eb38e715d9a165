package payments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/notification"
	"github.com/walletpay/walletpay/internal/store"
	"github.com/walletpay/walletpay/internal/wallet"
)

// Service runs wallet-to-wallet transfers.
type Service struct {
	users        UserFinder
	wallets      wallet.Repository
	transactions TransactionRepository
	eligibility  *Eligibility
	authorizer   Authorizer
	uow          store.UnitOfWork
	notifier     notification.Notifier
	logger       *slog.Logger
}

// Deps groups the collaborators of Service.
type Deps struct {
	Users        UserFinder
	Wallets      wallet.Repository
	Transactions TransactionRepository
	Authorizer   Authorizer
	UnitOfWork   store.UnitOfWork
	Notifier     notification.Notifier
	Logger       *slog.Logger
}

// NewService constructs a payment service.
func NewService(d Deps) *Service {
	return &Service{
		users:        d.Users,
		wallets:      d.Wallets,
		transactions: d.Transactions,
		eligibility:  NewEligibility(d.Users, d.Wallets, d.Logger),
		authorizer:   d.Authorizer,
		uow:          d.UnitOfWork,
		notifier:     d.Notifier,
		logger:       d.Logger,
	}
}

// TransferInput identifies both parties by document number. Value is in
// minor units.
type TransferInput struct {
	Payer string
	Payee string
	Value int64
}

type party struct {
	user   identity.User
	wallet *wallet.Wallet
}

// Transfer moves Value from the payer's wallet to the payee's wallet.
//
// A denied authorization is still recorded as a NOT_AUTHORIZED transaction;
// in that case the recorded transaction is returned together with
// ErrPaymentNotAuthorized. Every other error leaves storage untouched.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (*Transaction, error) {
	payerDoc, err := identity.ParseDocumentNumber(input.Payer, "")
	if err != nil {
		return nil, fmt.Errorf("payer: %w", err)
	}
	payeeDoc, err := identity.ParseDocumentNumber(input.Payee, "")
	if err != nil {
		return nil, fmt.Errorf("payee: %w", err)
	}

	if err := s.eligibility.UserCanPay(ctx, payerDoc, input.Value); err != nil {
		return nil, err
	}

	txCtx, err := s.uow.Begin(ctx)
	if err != nil {
		return nil, err
	}
	tx, payee, err := s.settle(txCtx, payerDoc, payeeDoc, input.Value)
	if err != nil {
		if rbErr := s.uow.Rollback(txCtx); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
			err = errors.Join(err, rbErr)
		}
		return nil, err
	}
	if err := s.uow.Commit(txCtx); err != nil {
		return nil, err
	}

	if tx.IsNotAuthorized() {
		return tx, ErrPaymentNotAuthorized
	}

	s.logger.Info("transfer completed",
		"transaction_id", tx.ID,
		"payer_wallet_id", tx.PayerWalletID,
		"payee_wallet_id", tx.PayeeWalletID,
		"value", tx.Value,
	)
	s.notifyPayee(ctx, payee, tx)
	return tx, nil
}

// settle runs inside the unit of work. Wallets are read here, so in Postgres
// both rows stay locked until commit or rollback.
func (s *Service) settle(ctx context.Context, payerDoc, payeeDoc identity.DocumentNumber, value int64) (*Transaction, identity.User, error) {
	payer, payee, err := s.loadParties(ctx, payerDoc, payeeDoc)
	if err != nil {
		return nil, identity.User{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, identity.User{}, err
	}
	tx, err := NewTransaction(id.String(), payer.wallet.ID, payee.wallet.ID, value, StatusPending, time.Time{})
	if err != nil {
		return nil, identity.User{}, err
	}

	authorized := s.authorizer.IsAuthorized(ctx, AuthorizationRequest{
		TransactionID: tx.ID,
		PayerWalletID: tx.PayerWalletID,
		PayeeWalletID: tx.PayeeWalletID,
		Value:         tx.Value,
	})
	if !authorized {
		s.logger.Info("transfer not authorized",
			"transaction_id", tx.ID,
			"payer_user_id", payer.user.ID,
			"payee_user_id", payee.user.ID,
			"value", value,
		)
		tx.SetStatus(StatusNotAuthorized)
	}

	if tx.IsPending() {
		if err := payer.wallet.Pay(value); err != nil {
			return nil, identity.User{}, err
		}
		if err := payee.wallet.Receive(value); err != nil {
			return nil, identity.User{}, err
		}
		if err := s.wallets.Update(ctx, payer.wallet.ID, payer.wallet); err != nil {
			return nil, identity.User{}, fmt.Errorf("update payer wallet: %w", err)
		}
		if err := s.wallets.Update(ctx, payee.wallet.ID, payee.wallet); err != nil {
			return nil, identity.User{}, fmt.Errorf("update payee wallet: %w", err)
		}
		tx.SetStatus(StatusCompleted)
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, identity.User{}, fmt.Errorf("record transaction: %w", err)
	}
	return tx, payee.user, nil
}

// loadParties resolves both users, then locks their wallets in user id order
// so opposite transfers between the same pair cannot deadlock.
func (s *Service) loadParties(ctx context.Context, payerDoc, payeeDoc identity.DocumentNumber) (party, party, error) {
	payerUser, err := s.users.FindByDocumentNumber(ctx, payerDoc)
	if err != nil {
		return party{}, party{}, err
	}
	payeeUser, err := s.users.FindByDocumentNumber(ctx, payeeDoc)
	if err != nil {
		return party{}, party{}, err
	}
	payer := party{user: payerUser}
	payee := party{user: payeeUser}

	first, second := &payer, &payee
	if payeeUser.ID < payerUser.ID {
		first, second = second, first
	}
	if first.wallet, err = s.wallets.FindByUserID(ctx, first.user.ID); err != nil {
		return party{}, party{}, err
	}
	if first.user.ID == second.user.ID {
		second.wallet = first.wallet
		return payer, payee, nil
	}
	if second.wallet, err = s.wallets.FindByUserID(ctx, second.user.ID); err != nil {
		return party{}, party{}, err
	}
	return payer, payee, nil
}

// notifyPayee is best-effort; a failed delivery never fails the transfer.
func (s *Service) notifyPayee(ctx context.Context, payee identity.User, tx *Transaction) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{
		Kind:        notification.KindPaymentReceived,
		Destination: payee.ID,
		Reference:   tx.ID,
		Amount:      tx.Value,
		Body:        fmt.Sprintf("You received %s", FromMinorUnits(tx.Value).StringFixed(2)),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Warn("payee notification failed", "transaction_id", tx.ID, "error", err)
	}
}

// GetTransaction returns a recorded transaction.
func (s *Service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	return s.transactions.FindByID(ctx, id)
}
