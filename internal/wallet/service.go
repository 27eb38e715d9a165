package wallet

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/walletpay/walletpay/internal/identity"
)

// UserChecker confirms a wallet owner exists.
type UserChecker interface {
	ExistsByID(ctx context.Context, id string) (bool, error)
}

// Service exposes wallet operations.
type Service struct {
	repo   Repository
	users  UserChecker
	logger *slog.Logger
}

// NewService builds a wallet service instance.
func NewService(repo Repository, users UserChecker, logger *slog.Logger) *Service {
	return &Service{repo: repo, users: users, logger: logger}
}

// CreateForUser opens a zero-balance wallet for an existing user.
func (s *Service) CreateForUser(ctx context.Context, userID string) (*Wallet, error) {
	exists, err := s.users.ExistsByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !exists {
		s.logger.Info("cannot open wallet for unknown user", "user_id", userID)
		return nil, identity.ErrUserNotFound
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}
	wallet, err := New(id.String(), userID, 0, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, wallet); err != nil {
		return nil, err
	}
	s.logger.Info("wallet opened", "wallet_id", wallet.ID, "user_id", userID)
	return wallet, nil
}

// ProvisionWallet satisfies identity.WalletProvisioner.
func (s *Service) ProvisionWallet(ctx context.Context, userID string) error {
	_, err := s.CreateForUser(ctx, userID)
	return err
}

// GetByOwner returns the wallet owned by userID.
func (s *Service) GetByOwner(ctx context.Context, userID string) (*Wallet, error) {
	return s.repo.FindByUserID(ctx, userID)
}
