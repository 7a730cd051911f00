package midgard

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"swapScope/internal/asset"
	"swapScope/internal/model"
	"swapScope/internal/multichain"
)

// Default configuration values.
const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 500 * time.Millisecond

	MainnetURL = "https://midgard.ninerealms.com"
	TestnetURL = "https://testnet.midgard.thorchain.info"
)

// BaseURL returns the public Midgard endpoint for network.
func BaseURL(network multichain.Network) string {
	if network == multichain.Mainnet {
		return MainnetURL
	}
	return TestnetURL
}

// StatusError is a non-200 response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Client reads pools and inbound addresses from a Midgard v2 API. It
// implements multichain.Provider.
type Client struct {
	baseURL    string
	client     *http.Client
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// Option configures Client.
type Option func(*Client)

// WithHTTPClient sets the transport client. A nil client is ignored. The
// client is copied, so WithTimeout never changes the caller's value.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

func WithMaxRetries(n int) Option {
	return func(c *Client) {
		c.maxRetries = n
	}
}

func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithRateLimit caps outgoing requests, retries included, at rps with the
// given burst. A non-positive rps disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		client:     http.DefaultClient,
		timeout:    DefaultTimeout,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	client := *c.client
	client.Timeout = c.timeout
	c.client = &client
	return c
}

// Pools lists pool snapshots. An empty status returns every pool.
func (c *Client) Pools(ctx context.Context, status string) ([]model.PoolDetail, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	var pools []model.PoolDetail
	if err := c.get(ctx, "/v2/pools", query, &pools); err != nil {
		return nil, fmt.Errorf("get pools: %w", err)
	}
	return pools, nil
}

// InboundAddresses lists every chain's current inbound vault.
func (c *Client) InboundAddresses(ctx context.Context) ([]model.InboundAddress, error) {
	var addresses []model.InboundAddress
	if err := c.get(ctx, "/v2/thorchain/inbound_addresses", nil, &addresses); err != nil {
		return nil, fmt.Errorf("get inbound addresses: %w", err)
	}
	return addresses, nil
}

// InboundAddress returns the vault for one chain.
func (c *Client) InboundAddress(ctx context.Context, chain asset.Chain) (model.InboundAddress, error) {
	addresses, err := c.InboundAddresses(ctx)
	if err != nil {
		return model.InboundAddress{}, err
	}
	for _, inbound := range addresses {
		if strings.EqualFold(inbound.Chain, string(chain)) {
			return inbound, nil
		}
	}
	return model.InboundAddress{}, fmt.Errorf("no inbound address for chain %s", chain)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	attempt := 0
	return withRetry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		attempt++
		err := c.fetch(ctx, endpoint, out)
		if err != nil {
			c.logger.Debug("midgard request failed",
				zap.String("url", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
		}
		return err
	})
}

func (c *Client) fetch(ctx context.Context, endpoint string, out interface{}) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
