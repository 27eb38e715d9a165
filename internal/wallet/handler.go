package wallet

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletpay/walletpay/internal/identity"
)

// OwnerResolver maps a raw document number to its user.
type OwnerResolver interface {
	FindByDocumentNumber(ctx context.Context, raw string) (identity.User, error)
}

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
	owners  OwnerResolver
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, owners OwnerResolver) *Handler {
	return &Handler{service: service, owners: owners}
}

type walletResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	DocumentNumber string    `json:"document_number"`
	Balance        int64     `json:"balance"`
	CreatedAt      time.Time `json:"created_at"`
}

// ByOwner returns the wallet of the user holding the :document path param.
func (h *Handler) ByOwner(c *fiber.Ctx) error {
	ctx := c.UserContext()
	user, err := h.owners.FindByDocumentNumber(ctx, c.Params("document"))
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidDocumentNumber):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		case errors.Is(err, identity.ErrUserNotFound):
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	wallet, err := h.service.GetByOwner(ctx, user.ID)
	if err != nil {
		if errors.Is(err, ErrWalletNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.Status(http.StatusOK).JSON(walletResponse{
		ID:             wallet.ID,
		UserID:         wallet.UserID,
		DocumentNumber: user.Document.String(),
		Balance:        wallet.Balance(),
		CreatedAt:      wallet.CreatedAt,
	})
}
