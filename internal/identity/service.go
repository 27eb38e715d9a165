package identity

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/walletpay/walletpay/internal/store"
	"github.com/walletpay/walletpay/internal/validation"
)

const minPasswordLength = 6

// WalletProvisioner opens the wallet every new user owns.
type WalletProvisioner interface {
	ProvisionWallet(ctx context.Context, userID string) error
}

// Service manages identity lifecycle.
type Service struct {
	repo    Repository
	wallets WalletProvisioner
	uow     store.UnitOfWork
	logger  *slog.Logger
}

// NewService creates a new identity service.
func NewService(repo Repository, wallets WalletProvisioner, uow store.UnitOfWork, logger *slog.Logger) *Service {
	return &Service{repo: repo, wallets: wallets, uow: uow, logger: logger}
}

// Register creates a user and its zero-balance wallet in one unit of work.
func (s *Service) Register(ctx context.Context, input RegisterInput) (User, error) {
	userType, err := ParseUserType(input.Type)
	if err != nil {
		s.logger.Info("cannot register user with unknown type", "type", input.Type)
		return User{}, err
	}

	doc, err := ParseDocumentNumber(input.DocumentNumber, userType)
	if err != nil {
		return User{}, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return User{}, fmt.Errorf("%w: name is required", ErrInvalidRegistration)
	}
	if err := validation.Var("email", input.Email, "required,email"); err != nil {
		return User{}, fmt.Errorf("%w: %w", ErrInvalidRegistration, err)
	}
	if len(input.Password) < minPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, minPasswordLength)
	}

	exists, err := s.repo.ExistsByDocumentNumber(ctx, doc)
	if err != nil {
		return User{}, err
	}
	if exists {
		s.logger.Info("document number already registered", "document_number", doc.String())
		return User{}, ErrDocumentNumberInUse
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return User{}, err
	}

	user := User{
		ID:           id.String(),
		Name:         name,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		Document:     doc,
		Type:         userType,
		CreatedAt:    time.Now().UTC(),
	}

	err = store.Run(ctx, s.uow, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, user); err != nil {
			return err
		}
		return s.wallets.ProvisionWallet(ctx, user.ID)
	})
	if err != nil {
		return User{}, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "type", string(user.Type))
	return user, nil
}

// FindByDocumentNumber resolves a raw document number to its owner.
func (s *Service) FindByDocumentNumber(ctx context.Context, raw string) (User, error) {
	doc, err := ParseDocumentNumber(raw, "")
	if err != nil {
		return User{}, err
	}
	return s.repo.FindByDocumentNumber(ctx, doc)
}
