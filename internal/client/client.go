// Package client is a typed REST client for the food ordering API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"foodorder/internal/model"
)

const (
	defaultAttempts = 3
	defaultBackoff  = 2 * time.Second
)

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// Client talks to the API. Retryable calls are repeated on network errors and 5xx.
type Client struct {
	baseURL  string
	http     *http.Client
	token    string
	attempts int
	backoff  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRetry sets the total attempts and the fixed wait between them.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts < 1 {
			attempts = 1
		}
		c.attempts = attempts
		c.backoff = backoff
	}
}

// WithToken sets the session token sent in the "token" header.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: 15 * time.Second},
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the current session token.
func (c *Client) Token() string { return c.token }

type authResponse struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Register creates an account and keeps the returned token.
func (c *Client) Register(ctx context.Context, name, email, password string) (string, error) {
	var out authResponse
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/user/register", body, &out, false); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Role, nil
}

// Login authenticates and keeps the returned token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out authResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.call(ctx, http.MethodPost, "/api/user/login", body, &out, false); err != nil {
		return "", err
	}
	c.token = out.Token
	return out.Role, nil
}

// ValidateToken reports whether the current token is accepted.
// Any failure, including an unreachable server, counts as invalid.
func (c *Client) ValidateToken(ctx context.Context) (*model.Profile, bool) {
	if c.token == "" {
		return nil, false
	}
	var out struct {
		User *model.Profile `json:"user"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/user/validate", nil, &out, true); err != nil {
		slog.DebugContext(ctx, "token validation failed", "error", err)
		return nil, false
	}
	return out.User, out.User != nil
}

// ListFood returns the catalog.
func (c *Client) ListFood(ctx context.Context) ([]model.Food, error) {
	var out struct {
		Data []model.Food `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/food/list", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Data, nil
}

type cartResponse struct {
	CartData map[string]int `json:"cartData"`
}

// AddToCart adds one unit of itemID.
func (c *Client) AddToCart(ctx context.Context, itemID string) (map[string]int, error) {
	return c.cart(ctx, "/api/cart/add", map[string]string{"itemId": itemID})
}

// RemoveFromCart removes one unit of itemID.
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (map[string]int, error) {
	return c.cart(ctx, "/api/cart/remove", map[string]string{"itemId": itemID})
}

// GetCart returns the caller's cart.
func (c *Client) GetCart(ctx context.Context) (map[string]int, error) {
	return c.cart(ctx, "/api/cart/get", nil)
}

func (c *Client) cart(ctx context.Context, path string, body interface{}) (map[string]int, error) {
	var out cartResponse
	if err := c.call(ctx, http.MethodPost, path, body, &out, true); err != nil {
		return nil, err
	}
	return out.CartData, nil
}

// OrderLine is one requested line of an order.
type OrderLine struct {
	ItemID   string `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// PlaceOrder checks out. With no lines the server uses the cart.
// It returns the order id and the payment redirect URL.
func (c *Client) PlaceOrder(ctx context.Context, lines []OrderLine, address model.Address) (string, string, error) {
	var out struct {
		OrderID    string `json:"orderId"`
		SessionURL string `json:"session_url"`
	}
	body := map[string]interface{}{"items": lines, "address": address}
	if err := c.call(ctx, http.MethodPost, "/api/order/place", body, &out, false); err != nil {
		return "", "", err
	}
	return out.OrderID, out.SessionURL, nil
}

// VerifyPayment relays the gateway redirect outcome.
func (c *Client) VerifyPayment(ctx context.Context, orderID string, success bool) (*model.Order, error) {
	var out struct {
		Order *model.Order `json:"order"`
	}
	body := map[string]interface{}{"orderId": orderID, "success": success}
	if err := c.call(ctx, http.MethodPost, "/api/order/verify", body, &out, false); err != nil {
		return nil, err
	}
	return out.Order, nil
}

// UserOrders lists the caller's orders.
func (c *Client) UserOrders(ctx context.Context) ([]model.Order, error) {
	var out struct {
		Data []model.Order `json:"data"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/order/userorders", nil, &out, true); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Ping calls GET /ping.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return c.text(ctx, "/ping")
}

// Root calls GET /.
func (c *Client) Root(ctx context.Context) (string, error) {
	return c.text(ctx, "/")
}

// Health calls GET /health and returns its status field.
func (c *Client) Health(ctx context.Context) (string, error) {
	var out struct {
		Status string `json:"status"`
	}
	if err := c.call(ctx, http.MethodGet, "/health", nil, &out, true); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (c *Client) text(ctx context.Context, path string) (string, error) {
	raw, err := c.send(ctx, http.MethodGet, path, nil, true)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *Client) call(ctx context.Context, method, path string, body, out interface{}, retryable bool) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	raw, err := c.send(ctx, method, path, payload, retryable)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// send performs the request, retrying when retryable.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, retryable bool) ([]byte, error) {
	attempts := 1
	if retryable {
		attempts = c.attempts
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := c.do(ctx, method, path, payload)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !shouldRetry(err) || ctx.Err() != nil || attempt == attempts {
			break
		}
		slog.WarnContext(ctx, "api request failed, retrying", "path", path, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff):
		}
	}
	return nil, lastErr
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var er struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Message, apiErr.Code = er.Message, er.Code
		}
		return nil, apiErr
	}
	return raw, nil
}

// shouldRetry is true for transport failures and server-side errors.
func shouldRetry(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	return true
}
