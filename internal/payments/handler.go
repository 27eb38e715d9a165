package payments

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/validation"
	"github.com/walletpay/walletpay/internal/wallet"
)

// Handler exposes payment endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a payment handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// transferRequest accepts value as a JSON string or number in major units.
type transferRequest struct {
	Value decimal.Decimal `json:"value" validate:"positive_decimal"`
	Payer string          `json:"payer" validate:"required"`
	Payee string          `json:"payee" validate:"required"`
}

type transactionResponse struct {
	ID            string    `json:"id"`
	PayerWalletID string    `json:"payer_wallet_id"`
	PayeeWalletID string    `json:"payee_wallet_id"`
	Value         int64     `json:"value"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

func toResponse(tx *Transaction) transactionResponse {
	return transactionResponse{
		ID:            tx.ID,
		PayerWalletID: tx.PayerWalletID,
		PayeeWalletID: tx.PayeeWalletID,
		Value:         tx.Value,
		Status:        tx.Status(),
		CreatedAt:     tx.CreatedAt,
	}
}

// Transfer handles POST /transfer.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	var req transferRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	value, err := ToMinorUnits(req.Value)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	tx, err := h.service.Transfer(c.UserContext(), TransferInput{Payer: req.Payer, Payee: req.Payee, Value: value})
	if err != nil {
		if errors.Is(err, ErrPaymentNotAuthorized) && tx != nil {
			return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
				"error":       err.Error(),
				"transaction": toResponse(tx),
			})
		}
		if isDomainError(err) {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(toResponse(tx))
}

// Get handles GET /transactions/:id.
func (h *Handler) Get(c *fiber.Ctx) error {
	tx, err := h.service.GetTransaction(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, ErrTransactionNotFound) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return err
	}
	return c.JSON(toResponse(tx))
}

var domainErrors = []error{
	identity.ErrInvalidDocumentNumber,
	identity.ErrUserNotFound,
	wallet.ErrWalletNotFound,
	wallet.ErrInsufficientBalance,
	wallet.ErrInvalidAmount,
	wallet.ErrBalanceOverflow,
	ErrShopkeeperCannotPay,
	ErrInvalidTransactionValue,
	ErrInvalidPayee,
	ErrAmountOutOfRange,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
