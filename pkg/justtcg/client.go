package justtcg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/tmrivera/cardhaven-backend/pkg/errors"
)

const (
	defaultBaseURL        = "https://api.justtcg.com/v1"
	apiKeyHeader          = "x-api-key"
	responseBodyReadLimit = 1024
	defaultMaxRetries     = 3
	defaultRetryBase      = 200 * time.Millisecond
)

var errAPIKeyRequired = errors.New("justtcg api key is required")

// Client wraps the JustTCG pricing/stock/search endpoints consumed by the storefront.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	maxRetries uint64
	retryBase  time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithRetry tunes the rate-limit retry policy.
func WithRetry(attempts uint64, base time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.maxRetries = attempts
		}
		if base > 0 {
			c.retryBase = base
		}
	}
}

// NewClient builds the JustTCG client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: defaultMaxRetries,
		retryBase:  defaultRetryBase,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}

	return client, nil
}

// CardPrice is the live price snapshot for a single card variant.
type CardPrice struct {
	CardID   string          `json:"cardId"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// CardStock is the live available stock for a single card variant.
type CardStock struct {
	CardID string `json:"cardId"`
	Stock  int    `json:"stock"`
}

// Suggestion is one autocomplete hit returned by the search endpoint.
type Suggestion struct {
	CardID   string `json:"id"`
	Name     string `json:"name"`
	SetName  string `json:"setName"`
	ImageURL string `json:"imageUrl"`
}

// CurrentPrice fetches the live price for the card.
func (c *Client) CurrentPrice(ctx context.Context, cardID string) (*CardPrice, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "justtcg client not configured")
	}
	trimmed := strings.TrimSpace(cardID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id is required")
	}

	var payload struct {
		Data CardPrice `json:"data"`
	}
	path := fmt.Sprintf("cards/%s/current-price", url.PathEscape(trimmed))
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Data.CardID == "" {
		payload.Data.CardID = trimmed
	}
	return &payload.Data, nil
}

// Stock fetches the live available stock for the card.
func (c *Client) Stock(ctx context.Context, cardID string) (*CardStock, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "justtcg client not configured")
	}
	trimmed := strings.TrimSpace(cardID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "card id is required")
	}

	var payload struct {
		Data CardStock `json:"data"`
	}
	path := fmt.Sprintf("cards/%s/stock", url.PathEscape(trimmed))
	if err := c.getJSON(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	if payload.Data.CardID == "" {
		payload.Data.CardID = trimmed
	}
	return &payload.Data, nil
}

// Autocomplete queries card suggestions for partial input.
func (c *Client) Autocomplete(ctx context.Context, query string) ([]Suggestion, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "justtcg client not configured")
	}
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search query is required")
	}

	var payload struct {
		Data []Suggestion `json:"data"`
	}
	params := url.Values{}
	params.Set("q", trimmed)
	if err := c.getJSON(ctx, "search/autocomplete", params, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

// getJSON executes a GET with rate-limit-aware retry and decodes the body into dest.
// A canceled context is surfaced as the context error so callers can tell an
// aborted request apart from a real failure.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := c.buildURL(path)
	if len(params) > 0 {
		endpoint = endpoint + "?" + params.Encode()
	}

	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewFibonacci(c.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set(apiKeyHeader, c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute request")
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
			}
			return nil
		case resp.StatusCode == http.StatusNotFound:
			return pkgerrors.New(pkgerrors.CodeNotFound, "card not found")
		case resp.StatusCode == http.StatusTooManyRequests:
			return retry.RetryableError(pkgerrors.New(pkgerrors.CodeRateLimit, "justtcg rate limit hit"))
		default:
			msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
			return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "request failed")
		}
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
