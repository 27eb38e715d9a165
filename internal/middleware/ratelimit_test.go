package middleware

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walletpay/walletpay/internal/logging"
)

func setupRateLimitedApp(t *testing.T, limit int) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = cache.Close() })

	app := fiber.New()
	app.Post("/transfer", TransferRateLimit(cache, limit, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	return app, mr
}

func transfer(t *testing.T, app *fiber.App, payer string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader(`{"payer":"`+payer+`","payee":"x","value":"1"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestTransferRateLimitPerPayer(t *testing.T) {
	app, mr := setupRateLimitedApp(t, 2)

	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "620.758.220-93"))
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
	assert.Equal(t, fiber.StatusTooManyRequests, transfer(t, app, "620.758.220-93"))

	// another payer has its own budget
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "658.358.790-40"))

	assert.True(t, mr.Exists(transferRateKeyPrefix+"62075822093"))
	mr.FastForward(time.Minute + time.Second)
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
}

func TestTransferRateLimitFailsOpen(t *testing.T) {
	app, mr := setupRateLimitedApp(t, 1)
	mr.Close()

	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
}

func TestTransferRateLimitZeroDisables(t *testing.T) {
	app, mr := setupRateLimitedApp(t, 0)

	for i := 0; i < 5; i++ {
		assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
	}
	assert.False(t, mr.Exists(transferRateKeyPrefix+"62075822093"))
}

func TestTransferRateLimitWithoutRedis(t *testing.T) {
	app := fiber.New()
	app.Post("/transfer", TransferRateLimit(nil, 1, logging.Discard()), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusCreated)
	})
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
	assert.Equal(t, fiber.StatusCreated, transfer(t, app, "62075822093"))
}
