package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

const transferRateKeyPrefix = "rl:transfer:"

// TransferRateLimit caps transfer attempts per payer per minute using a
// Redis counter. A limit of zero disables it. Without Redis, or when Redis
// fails, requests pass through.
func TransferRateLimit(cache *redis.Client, maxPerMin int, logger *slog.Logger) fiber.Handler {
	if cache == nil || maxPerMin <= 0 {
		return func(c *fiber.Ctx) error {
			return c.Next()
		}
	}
	return func(c *fiber.Ctx) error {
		var req struct {
			Payer string `json:"payer"`
		}
		_ = c.BodyParser(&req)
		subject := digitsOnly(req.Payer)
		if subject == "" {
			subject = c.IP()
		}

		ctx := c.UserContext()
		key := transferRateKeyPrefix + subject
		cnt, err := cache.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("transfer rate limit unavailable", "error", err)
			return c.Next()
		}
		if cnt == 1 {
			cache.Expire(ctx, key, time.Minute)
		}
		if cnt > int64(maxPerMin) {
			if ttl, err := cache.TTL(ctx, key).Result(); err == nil && ttl > 0 {
				c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(ttl.Seconds())))
			}
			return fiber.NewError(http.StatusTooManyRequests, "too many transfer attempts, try again later")
		}
		return c.Next()
	}
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
