package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// AuthorizationRequest describes the transfer being authorized.
type AuthorizationRequest struct {
	TransactionID string
	PayerWalletID string
	PayeeWalletID string
	Value         int64
}

// Authorizer is the external yes/no check consulted once per transfer. It
// never returns an error; anything short of an explicit approval is a denial.
type Authorizer interface {
	IsAuthorized(ctx context.Context, req AuthorizationRequest) bool
}

// StaticAuthorizer always answers with its own value.
type StaticAuthorizer bool

func (s StaticAuthorizer) IsAuthorized(context.Context, AuthorizationRequest) bool { return bool(s) }

// AuthorizerConfig configures HTTPAuthorizer.
type AuthorizerConfig struct {
	BaseURL string
	Timeout time.Duration
	// MaxFailures consecutive failures open the breaker.
	MaxFailures uint32
	// OpenTimeout is how long the breaker stays open before probing again.
	OpenTimeout time.Duration
}

// HTTPAuthorizer asks a remote service via GET {BaseURL}/authorize. A call
// is approved only for a 2xx response whose body carries
// {"data": {"authorization": true}}.
type HTTPAuthorizer struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	logger   *slog.Logger
}

var errUnexpectedStatus = errors.New("unexpected authorizer status")

type authorizeResponse struct {
	Data struct {
		Authorization *bool `json:"authorization"`
	} `json:"data"`
}

// NewHTTPAuthorizer builds an authorizer guarded by a circuit breaker.
func NewHTTPAuthorizer(cfg AuthorizerConfig, logger *slog.Logger) *HTTPAuthorizer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 30 * time.Second
	}
	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "authorizer",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &HTTPAuthorizer{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + "/authorize",
		client:   &http.Client{Timeout: cfg.Timeout},
		breaker:  breaker,
		logger:   logger,
	}
}

// IsAuthorized calls the remote service once. Transport errors, timeouts,
// non-2xx statuses, malformed bodies and an open breaker all deny.
func (a *HTTPAuthorizer) IsAuthorized(ctx context.Context, req AuthorizationRequest) bool {
	result, err := a.breaker.Execute(func() (interface{}, error) {
		return a.call(ctx)
	})
	if err != nil {
		a.logger.Warn("authorization call failed, treating as denied",
			"transaction_id", req.TransactionID,
			"error", err,
		)
		return false
	}
	approved, _ := result.(bool)
	return approved
}

func (a *HTTPAuthorizer) call(ctx context.Context) (bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint, nil)
	if err != nil {
		return false, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: %d", errUnexpectedStatus, resp.StatusCode)
	}

	var body authorizeResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return false, fmt.Errorf("decode authorizer response: %w", err)
	}
	return body.Data.Authorization != nil && *body.Data.Authorization, nil
}
