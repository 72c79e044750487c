package backend

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/models"
	"retail-dashboard/internal/observability"
)

const (
	maxErrorBody = 4 << 10
	dateLayout   = "2006-01-02"
)

var (
	ErrNotFound     = errors.New("backend: not found")
	ErrUnauthorized = errors.New("backend: unauthorized")
	ErrUpstream     = errors.New("backend: request failed")
)

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Code)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == http.StatusNotFound
	case ErrUnauthorized:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	case ErrUpstream:
		return true
	}
	return false
}

type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type Client struct {
	baseURL *url.URL
	http    *http.Client
	breaker *Breaker
	cache   *Cache
	logger  *slog.Logger
}

func NewClient(cfg config.BackendConfig, logger *slog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: NewBreaker("backend", BreakerConfig{
			MaxFailures:  cfg.BreakerFailures,
			ResetTimeout: cfg.BreakerResetTime,
		}, logger),
		cache:  NewCache(cfg.CacheTTL),
		logger: logger,
	}, nil
}

func (c *Client) Cache() *Cache { return c.cache }

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = u.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (c *Client) do(ctx context.Context, token, method, path string, query url.Values, body, out any) error {
	ctx, span := observability.StartSpan(ctx, method+" "+path)
	defer span.End(c.logger)
	span.SetTag("backend.path", path)

	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			buf, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("encode request: %w", err)
			}
			reader = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		if id := observability.GetRequestID(ctx); id != "" {
			req.Header.Set("X-Request-ID", id)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, path, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return readStatusError(resp)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
		return nil
	})
	if err != nil {
		span.SetError(err)
	}
	return err
}

func readStatusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	var env envelope[json.RawMessage]
	msg := ""
	if json.Unmarshal(raw, &env) == nil {
		msg = env.Message
	}
	return &StatusError{Code: resp.StatusCode, Message: msg}
}

func getCached[T any](ctx context.Context, c *Client, token, path string, query url.Values) (T, error) {
	key := cacheKey(token, path, query)
	v, err := c.cache.Do(ctx, key, func(ctx context.Context) (any, error) {
		var env envelope[T]
		if err := c.do(ctx, token, http.MethodGet, path, query, nil, &env); err != nil {
			return nil, err
		}
		return env.Data, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// cacheKey scopes cached responses to the caller's credential.
func cacheKey(token, path string, query url.Values) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8]) + " " + path + "?" + query.Encode()
}

func (c *Client) ListTransactions(ctx context.Context, token string) ([]models.Transaction, error) {
	return getCached[[]models.Transaction](ctx, c, token, "/transactions", nil)
}

// ListShopTransactions fetches one shop's transactions, optionally bounded by
// creation date on the backend side.
func (c *Client) ListShopTransactions(ctx context.Context, token, shopID string, start, end *time.Time) ([]models.Transaction, error) {
	query := url.Values{}
	if start != nil {
		query.Set("startDate", start.Format(dateLayout))
	}
	if end != nil {
		query.Set("endDate", end.Format(dateLayout))
	}
	return getCached[[]models.Transaction](ctx, c, token, "/transactions/shop/"+url.PathEscape(shopID), query)
}

type CreateResult struct {
	OK      bool
	Status  string
	Message string
}

// CreateTransaction submits a new record. A 2xx reply whose status is not
// "success" is reported in the result, not as an error.
func (c *Client) CreateTransaction(ctx context.Context, token string, tx models.NewTransaction) (CreateResult, error) {
	var env envelope[json.RawMessage]
	if err := c.do(ctx, token, http.MethodPost, "/transactions", nil, tx, &env); err != nil {
		return CreateResult{}, err
	}
	c.cache.Invalidate(func(key string) bool {
		return strings.Contains(key, " /transactions")
	})
	return CreateResult{
		OK:      env.Status == "success",
		Status:  env.Status,
		Message: env.Message,
	}, nil
}

type customerLookup struct {
	Customer *models.Customer `json:"customer"`
}

// CustomerByFayda resolves a scanned Fayda number. A reply without a customer
// is treated as ErrNotFound.
func (c *Client) CustomerByFayda(ctx context.Context, token, fayda string) (*models.Customer, error) {
	var env envelope[*customerLookup]
	if err := c.do(ctx, token, http.MethodGet, "/customers/fayda/"+url.PathEscape(fayda), nil, nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil || env.Data.Customer == nil {
		return nil, ErrNotFound
	}
	return env.Data.Customer, nil
}

func (c *Client) CurrentUser(ctx context.Context, token string) (models.User, error) {
	return getCached[models.User](ctx, c, token, "/auth/me", nil)
}

func (c *Client) ListCooperatives(ctx context.Context, token string) ([]models.Cooperative, error) {
	return getCached[[]models.Cooperative](ctx, c, token, "/retailer-cooperatives", nil)
}

func (c *Client) ListShops(ctx context.Context, token string) ([]models.Shop, error) {
	return getCached[[]models.Shop](ctx, c, token, "/retailer-cooperative-shops", nil)
}

func (c *Client) Shop(ctx context.Context, token, shopID string) (models.Shop, error) {
	return getCached[models.Shop](ctx, c, token, "/retailer-cooperative-shops/"+url.PathEscape(shopID), nil)
}

func (c *Client) ListWoredas(ctx context.Context, token string) ([]models.Woreda, error) {
	return getCached[[]models.Woreda](ctx, c, token, "/woredas", nil)
}
