package payments

import (
	"context"
	"log/slog"

	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/wallet"
)

// UserFinder resolves users by document number.
type UserFinder interface {
	FindByDocumentNumber(ctx context.Context, doc identity.DocumentNumber) (identity.User, error)
}

// WalletFinder resolves the wallet a user owns.
type WalletFinder interface {
	FindByUserID(ctx context.Context, userID string) (*wallet.Wallet, error)
}

// Eligibility decides whether a payer may send a given value. It never
// mutates state.
type Eligibility struct {
	users   UserFinder
	wallets WalletFinder
	logger  *slog.Logger
}

// NewEligibility builds the pre-transfer guard.
func NewEligibility(users UserFinder, wallets WalletFinder, logger *slog.Logger) *Eligibility {
	return &Eligibility{users: users, wallets: wallets, logger: logger}
}

// UserCanPay returns nil when payer exists, is not an organization, owns a
// wallet, and that wallet holds at least value.
func (e *Eligibility) UserCanPay(ctx context.Context, payer identity.DocumentNumber, value int64) error {
	user, err := e.users.FindByDocumentNumber(ctx, payer)
	if err != nil {
		e.logger.Info("payer not eligible: user lookup failed", "document_number", payer.String(), "error", err)
		return err
	}
	if user.IsOrganization() {
		e.logger.Info("payer not eligible: organization", "user_id", user.ID)
		return ErrShopkeeperCannotPay
	}
	w, err := e.wallets.FindByUserID(ctx, user.ID)
	if err != nil {
		e.logger.Info("payer not eligible: wallet lookup failed", "user_id", user.ID, "error", err)
		return err
	}
	if w.Balance() < value {
		e.logger.Info("payer not eligible: insufficient balance", "user_id", user.ID, "wallet_id", w.ID, "value", value)
		return wallet.ErrInsufficientBalance
	}
	return nil
}
