package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"clubnet/internal/domain"
	"clubnet/internal/infra/metrics"
)

// ErrUnauthenticated возвращается, когда шлюз идентификации отклонил токен.
var ErrUnauthenticated = errors.New("токен отклонён шлюзом идентификации")

// Client обращается к внешнему шлюзу идентификации по HTTP.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
}

var _ domain.Identity = (*Client)(nil)

// Option настраивает клиент.
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout задаёт таймаут запросов.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if c.httpClient == nil {
			c.httpClient = &http.Client{}
		}
		c.httpClient.Timeout = timeout
	}
}

// New создаёт клиент шлюза идентификации.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "http"
	}
	client := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type introspectRequest struct {
	Token string `json:"token"`
}

type introspectResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Active bool      `json:"active"`
}

// Authenticate резолвит токен в стабильный идентификатор пользователя.
func (c *Client) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, ErrUnauthenticated
	}
	body, err := json.Marshal(introspectRequest{Token: token})
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal request: %w", err)
	}
	endpoint := c.baseURL.ResolveReference(&url.URL{Path: "/api/v1/tokens/introspect"})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return uuid.Nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveNetworkRequest("identity", "introspect", "tokens", start, err)
	if err != nil {
		return uuid.Nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return uuid.Nil, ErrUnauthenticated
	case resp.StatusCode >= 300:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return uuid.Nil, fmt.Errorf("identity gateway: status %d: %s", resp.StatusCode, data)
	}

	var parsed introspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return uuid.Nil, fmt.Errorf("decode response: %w", err)
	}
	if !parsed.Active || parsed.UserID == uuid.Nil {
		return uuid.Nil, ErrUnauthenticated
	}
	return parsed.UserID, nil
}
