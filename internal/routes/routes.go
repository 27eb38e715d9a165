package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/walletpay/walletpay/internal/config"
	"github.com/walletpay/walletpay/internal/identity"
	"github.com/walletpay/walletpay/internal/middleware"
	"github.com/walletpay/walletpay/internal/notification"
	"github.com/walletpay/walletpay/internal/payments"
	"github.com/walletpay/walletpay/internal/store"
	"github.com/walletpay/walletpay/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Without a database everything runs in memory, which is only allowed in dev.
	if !isDev(d.Cfg.AppEnv) && d.DB == nil {
		return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
	}

	authorizer, err := newAuthorizer(d)
	if err != nil {
		return err
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var (
		identityRepo identity.Repository
		walletRepo   wallet.Repository
		txRepo       payments.TransactionRepository
		uow          store.UnitOfWork
	)
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		txRepo = payments.NewPostgresTransactionRepository(d.DB)
		uow = store.NewPostgresUnitOfWork(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		txRepo = payments.NewMemoryTransactionRepository()
		uow = store.NewMemoryUnitOfWork()
	}

	var notifier notification.Notifier = notification.NewLoggerNotifier(d.Logger)
	if d.Cfg.NotifierURL != "" {
		notifier = notification.NewHTTPNotifier(d.Cfg.NotifierURL, d.Cfg.NotifierTimeout)
	}

	walletSvc := wallet.NewService(walletRepo, identityRepo, d.Logger)
	identitySvc := identity.NewService(identityRepo, walletSvc, uow, d.Logger)
	paymentSvc := payments.NewService(payments.Deps{
		Users:        identityRepo,
		Wallets:      walletRepo,
		Transactions: txRepo,
		Authorizer:   authorizer,
		UnitOfWork:   uow,
		Notifier:     notifier,
		Logger:       d.Logger,
	})

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.GetRequestID(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	if d.Cfg.TransferRateLimit == 0 {
		d.Logger.Warn("transfer rate limit disabled by configuration")
	}
	RegisterUserRoutes(api, identity.NewHandler(identitySvc), wallet.NewHandler(walletSvc, identitySvc))
	RegisterPaymentRoutes(api, payments.NewHandler(paymentSvc),
		middleware.TransferRateLimit(d.Cache, d.Cfg.TransferRateLimit, d.Logger))

	return nil
}

func newAuthorizer(d Deps) (payments.Authorizer, error) {
	if d.Cfg.AuthorizerURL != "" {
		return payments.NewHTTPAuthorizer(payments.AuthorizerConfig{
			BaseURL: d.Cfg.AuthorizerURL,
			Timeout: d.Cfg.AuthorizerTimeout,
		}, d.Logger), nil
	}
	if !isDev(d.Cfg.AppEnv) {
		return nil, fmt.Errorf("AUTHORIZER_URL is required when APP_ENV=%s", d.Cfg.AppEnv)
	}
	d.Logger.Warn("AUTHORIZER_URL not set, approving every transfer")
	return payments.StaticAuthorizer(true), nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
