package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletpay/walletpay/internal/payments"
)

// RegisterPaymentRoutes wires payment endpoints.
func RegisterPaymentRoutes(r fiber.Router, h *payments.Handler, limiter fiber.Handler) {
	r.Post("/transfer", limiter, h.Transfer)
	r.Get("/transactions/:id", h.Get)
}
