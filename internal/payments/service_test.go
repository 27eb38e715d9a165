package payments

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/logging"
	"github.com/walletpay/walletpay/internal/notification"
	"github.com/walletpay/walletpay/internal/store"
	"github.com/walletpay/walletpay/internal/wallet"
)

const (
	alice  = "620.758.220-93"
	bob    = "658.358.790-40"
	carol  = "111.444.777-35"
	acme   = "05.503.537/0001-98"
	globex = "63.299.137/0001-09"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification.Message
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, msg notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return n.err
}

type countingAuthorizer struct {
	answer bool
	calls  atomic.Int32
}

func (a *countingAuthorizer) IsAuthorized(context.Context, AuthorizationRequest) bool {
	a.calls.Add(1)
	return a.answer
}

// countingWallets records reads and can fail the nth update.
type countingWallets struct {
	wallet.Repository
	reads      atomic.Int32
	updates    atomic.Int32
	failUpdate int32
}

func (c *countingWallets) FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error) {
	c.reads.Add(1)
	return c.Repository.FindByUserID(ctx, userID)
}

func (c *countingWallets) Update(ctx context.Context, id string, w *wallet.Wallet) error {
	n := c.updates.Add(1)
	if c.failUpdate != 0 && n == c.failUpdate {
		return errors.New("wallet store unavailable")
	}
	return c.Repository.Update(ctx, id, w)
}

type failingTransactions struct {
	TransactionRepository
	creates atomic.Int32
	err     error
}

func (f *failingTransactions) Create(ctx context.Context, tx *Transaction) error {
	f.creates.Add(1)
	if f.err != nil {
		return f.err
	}
	return f.TransactionRepository.Create(ctx, tx)
}

type fixture struct {
	users    identity.Repository
	wallets  *countingWallets
	txs      *failingTransactions
	uow      *store.MemoryUnitOfWork
	notifier *recordingNotifier
}

func newFixture() *fixture {
	return &fixture{
		users:    identity.NewMemoryRepository(),
		wallets:  &countingWallets{Repository: wallet.NewMemoryRepository()},
		txs:      &failingTransactions{TransactionRepository: NewMemoryTransactionRepository()},
		uow:      store.NewMemoryUnitOfWork(),
		notifier: &recordingNotifier{},
	}
}

func (f *fixture) addUser(t *testing.T, doc string, kind identity.UserType, balance int64) identity.User {
	t.Helper()
	ctx := context.Background()
	user := identity.User{
		ID:        uuid.NewString(),
		Name:      "user " + doc,
		Email:     "user@example.com",
		Document:  identity.MustParseDocumentNumber(doc),
		Type:      kind,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.users.Create(ctx, user))
	w, err := wallet.New(uuid.NewString(), user.ID, balance, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, f.wallets.Repository.Create(ctx, w))
	return user
}

func (f *fixture) service(auth Authorizer) *Service {
	return NewService(Deps{
		Users:        f.users,
		Wallets:      f.wallets,
		Transactions: f.txs,
		Authorizer:   auth,
		UnitOfWork:   f.uow,
		Notifier:     f.notifier,
		Logger:       logging.Discard(),
	})
}

func (f *fixture) balance(t *testing.T, user identity.User) int64 {
	t.Helper()
	w, err := f.wallets.Repository.FindByUserID(context.Background(), user.ID)
	require.NoError(t, err)
	return w.Balance()
}

func TestTransferCompleted(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 10_000)
	payee := f.addUser(t, bob, identity.TypeIndividual, 250)
	auth := &countingAuthorizer{answer: true}
	ctx := context.Background()

	tx, err := f.service(auth).Transfer(ctx, TransferInput{Payer: alice, Payee: bob, Value: 10_000})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, tx.Status())
	assert.Equal(t, int64(10_000), tx.Value)
	assert.Equal(t, int64(0), f.balance(t, payer))
	assert.Equal(t, int64(10_250), f.balance(t, payee))
	assert.Equal(t, int32(1), auth.calls.Load())

	stored, err := f.txs.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status())

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, payee.ID, f.notifier.sent[0].Destination)
	assert.Equal(t, tx.ID, f.notifier.sent[0].Reference)
	assert.Equal(t, notification.KindPaymentReceived, f.notifier.sent[0].Kind)
}

func TestTransferNotAuthorizedIsRecorded(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 10_000)
	payee := f.addUser(t, bob, identity.TypeIndividual, 0)
	auth := &countingAuthorizer{answer: false}
	ctx := context.Background()

	tx, err := f.service(auth).Transfer(ctx, TransferInput{Payer: alice, Payee: bob, Value: 10_000})
	require.ErrorIs(t, err, ErrPaymentNotAuthorized)
	require.NotNil(t, tx)
	assert.Equal(t, StatusNotAuthorized, tx.Status())

	stored, err := f.txs.FindByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusNotAuthorized, stored.Status())

	assert.Equal(t, int64(10_000), f.balance(t, payer))
	assert.Equal(t, int64(0), f.balance(t, payee))
	assert.Equal(t, int32(0), f.wallets.updates.Load())
	assert.Equal(t, int32(1), auth.calls.Load())
	assert.Empty(t, f.notifier.sent)
}

func TestTransferOrganizationCannotPay(t *testing.T) {
	f := newFixture()
	f.addUser(t, acme, identity.TypeOrganization, 50_000)
	f.addUser(t, bob, identity.TypeIndividual, 0)
	auth := &countingAuthorizer{answer: true}

	_, err := f.service(auth).Transfer(context.Background(), TransferInput{Payer: acme, Payee: bob, Value: 100})
	require.ErrorIs(t, err, ErrShopkeeperCannotPay)

	assert.Equal(t, int32(0), f.wallets.reads.Load(), "no wallet may be read for an organization payer")
	assert.Equal(t, int32(0), auth.calls.Load())
	assert.Equal(t, int32(0), f.txs.creates.Load())
}

func TestTransferInsufficientBalance(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 5_000)
	f.addUser(t, bob, identity.TypeIndividual, 0)
	auth := &countingAuthorizer{answer: true}

	_, err := f.service(auth).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 10_000})
	require.ErrorIs(t, err, wallet.ErrInsufficientBalance)

	assert.Equal(t, int32(0), f.txs.creates.Load())
	assert.Equal(t, int32(0), auth.calls.Load())
	assert.Equal(t, int64(5_000), f.balance(t, payer))
}

func TestTransferToOrganization(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 700)
	shop := f.addUser(t, globex, identity.TypeOrganization, 0)

	tx, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: globex, Value: 699})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, tx.Status())
	assert.Equal(t, int64(1), f.balance(t, payer))
	assert.Equal(t, int64(699), f.balance(t, shop))
}

func TestTransferLookupAndValidationFailures(t *testing.T) {
	f := newFixture()
	f.addUser(t, alice, identity.TypeIndividual, 1_000)
	svc := f.service(StaticAuthorizer(true))
	ctx := context.Background()

	_, err := svc.Transfer(ctx, TransferInput{Payer: alice, Payee: bob, Value: 10})
	assert.ErrorIs(t, err, identity.ErrUserNotFound)

	_, err = svc.Transfer(ctx, TransferInput{Payer: carol, Payee: alice, Value: 10})
	assert.ErrorIs(t, err, identity.ErrUserNotFound)

	_, err = svc.Transfer(ctx, TransferInput{Payer: "620.758.220-70", Payee: alice, Value: 10})
	assert.ErrorIs(t, err, identity.ErrInvalidDocumentNumber)

	_, err = svc.Transfer(ctx, TransferInput{Payer: alice, Payee: "00000000000", Value: 10})
	assert.ErrorIs(t, err, identity.ErrInvalidDocumentNumber)

	_, err = svc.Transfer(ctx, TransferInput{Payer: alice, Payee: alice, Value: 10})
	assert.ErrorIs(t, err, ErrInvalidPayee)

	f.addUser(t, bob, identity.TypeIndividual, 0)
	_, err = svc.Transfer(ctx, TransferInput{Payer: alice, Payee: bob, Value: 0})
	assert.ErrorIs(t, err, ErrInvalidTransactionValue)

	assert.Equal(t, int32(0), f.txs.creates.Load())
}

func TestTransferPayeeWithoutWallet(t *testing.T) {
	f := newFixture()
	f.addUser(t, alice, identity.TypeIndividual, 1_000)
	orphan := identity.User{
		ID:       uuid.NewString(),
		Document: identity.MustParseDocumentNumber(bob),
		Type:     identity.TypeIndividual,
	}
	require.NoError(t, f.users.Create(context.Background(), orphan))

	_, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 10})
	assert.ErrorIs(t, err, wallet.ErrWalletNotFound)
}

func TestTransferRollsBackWhenRecordFails(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 10_000)
	payee := f.addUser(t, bob, identity.TypeIndividual, 0)
	boom := errors.New("transactions table unavailable")
	f.txs.err = boom

	_, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 4_000})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int32(2), f.wallets.updates.Load(), "both wallets were written before the failure")
	assert.Equal(t, int64(10_000), f.balance(t, payer))
	assert.Equal(t, int64(0), f.balance(t, payee))
	assert.Empty(t, f.notifier.sent)
}

func TestTransferRollsBackWhenPayeeUpdateFails(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 10_000)
	payee := f.addUser(t, bob, identity.TypeIndividual, 0)
	f.wallets.failUpdate = 2

	_, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 4_000})
	require.Error(t, err)

	assert.Equal(t, int64(10_000), f.balance(t, payer))
	assert.Equal(t, int64(0), f.balance(t, payee))
	assert.Equal(t, int32(0), f.txs.creates.Load())
}

func TestTransferRejectsPayeeBalanceOverflow(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 100)
	payee := f.addUser(t, bob, identity.TypeIndividual, math.MaxInt64-10)

	tx, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 100})
	require.ErrorIs(t, err, wallet.ErrBalanceOverflow)
	assert.Nil(t, tx)

	assert.Equal(t, int64(100), f.balance(t, payer))
	assert.Equal(t, int64(math.MaxInt64-10), f.balance(t, payee))
	assert.Equal(t, int32(0), f.txs.creates.Load())
	assert.Empty(t, f.notifier.sent)
}

func TestTransferSucceedsWhenNotificationFails(t *testing.T) {
	f := newFixture()
	f.addUser(t, alice, identity.TypeIndividual, 100)
	payee := f.addUser(t, bob, identity.TypeIndividual, 0)
	f.notifier.err = errors.New("notifier down")

	tx, err := f.service(StaticAuthorizer(true)).Transfer(context.Background(), TransferInput{Payer: alice, Payee: bob, Value: 100})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, tx.Status())
	assert.Equal(t, int64(100), f.balance(t, payee))
	assert.Len(t, f.notifier.sent, 1)
}

func TestConcurrentTransfersCannotOverspend(t *testing.T) {
	f := newFixture()
	payer := f.addUser(t, alice, identity.TypeIndividual, 10_000)
	bobUser := f.addUser(t, bob, identity.TypeIndividual, 0)
	carolUser := f.addUser(t, carol, identity.TypeIndividual, 0)
	svc := f.service(StaticAuthorizer(true))

	var wg sync.WaitGroup
	var succeeded atomic.Int32
	for _, payee := range []string{bob, carol, bob, carol} {
		wg.Add(1)
		go func(payee string) {
			defer wg.Done()
			if _, err := svc.Transfer(context.Background(), TransferInput{Payer: alice, Payee: payee, Value: 6_000}); err == nil {
				succeeded.Add(1)
			} else {
				assert.ErrorIs(t, err, wallet.ErrInsufficientBalance)
			}
		}(payee)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int64(4_000), f.balance(t, payer))
	assert.Equal(t, int64(6_000), f.balance(t, bobUser)+f.balance(t, carolUser))
}

func TestGetTransaction(t *testing.T) {
	f := newFixture()
	f.addUser(t, alice, identity.TypeIndividual, 100)
	f.addUser(t, bob, identity.TypeIndividual, 0)
	svc := f.service(StaticAuthorizer(true))
	ctx := context.Background()

	tx, err := svc.Transfer(ctx, TransferInput{Payer: alice, Payee: bob, Value: 50})
	require.NoError(t, err)

	found, err := svc.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.PayerWalletID, found.PayerWalletID)

	_, err = svc.GetTransaction(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}
