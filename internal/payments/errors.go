package payments

import "errors"

var (
	// ErrShopkeeperCannotPay rejects transfers sent by organization accounts.
	ErrShopkeeperCannotPay = errors.New("organizations cannot send payments")
	// ErrPaymentNotAuthorized is returned after a denied attempt was recorded.
	ErrPaymentNotAuthorized = errors.New("payment not authorized")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrAmountOutOfRange     = errors.New("amount out of range")
)
