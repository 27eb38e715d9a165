package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/wallet"
)

// RegisterUserRoutes wires registration and wallet lookup.
func RegisterUserRoutes(r fiber.Router, users *identity.Handler, wallets *wallet.Handler) {
	r.Post("/users", users.Register)
	r.Get("/users/:document/wallet", wallets.ByOwner)
}
