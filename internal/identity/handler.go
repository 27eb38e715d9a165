package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletpay/walletpay/internal/validation"
)

// Handler exposes identity endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Password       string `json:"password" validate:"required,min=6"`
	DocumentNumber string `json:"document_number" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=individual organization"`
}

type UserResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	DocumentNumber string    `json:"document_number"`
	Type           string    `json:"type"`
	CreatedAt      time.Time `json:"created_at"`
}

// Register handles user onboarding.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := validation.ParseBody(c, &req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), RegisterInput{
		Name:           req.Name,
		Email:          req.Email,
		Password:       req.Password,
		DocumentNumber: req.DocumentNumber,
		Type:           req.Type,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDocumentNumberInUse):
			return fiber.NewError(http.StatusConflict, err.Error())
		case errors.Is(err, ErrInvalidUserType),
			errors.Is(err, ErrInvalidDocumentNumber),
			errors.Is(err, ErrInvalidRegistration):
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		return err
	}
	return c.Status(http.StatusCreated).JSON(ToResponse(user))
}

// ToResponse renders a user without its credentials.
func ToResponse(user User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		Name:           user.Name,
		Email:          user.Email,
		DocumentNumber: user.Document.String(),
		Type:           string(user.Type),
		CreatedAt:      user.CreatedAt,
	}
}
