// Package geocode resolves numeric municipality codes to human-readable
// names. The primary spatial backend emits seven-digit statistical codes in
// its municipality property; the fallback emits plain names. Lookups hit the
// public localities API and are cached.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Resolver translates a municipality code to its name.
type Resolver interface {
	MunicipalityName(ctx context.Context, code string) (string, error)
}

// Store caches resolved names. Implementations must be safe for concurrent
// use.
type Store interface {
	Get(ctx context.Context, code string) (string, bool, error)
	Set(ctx context.Context, code, name string) error
}

// Client resolves codes against the localities API with a cache in front.
type Client struct {
	baseURL string
	client  *http.Client
	store   Store
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New constructs a resolver over the localities API base URL backed by the
// given cache store.
func New(baseURL string, store Store, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MunicipalityName resolves a seven-digit municipality code. On any lookup
// failure the code itself is returned, so normalization degrades to showing
// the raw code rather than failing a whole query over a display field.
func (c *Client) MunicipalityName(ctx context.Context, code string) (string, error) {
	if name, ok, err := c.store.Get(ctx, code); err == nil && ok {
		return name, nil
	}

	url := fmt.Sprintf("%s/municipios/%s", c.baseURL, code)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return code, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "municipality lookup failed", "code", code, "error", err)
		}
		return code, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "municipality lookup rejected", "code", code, "status", resp.StatusCode)
		}
		return code, fmt.Errorf("municipality lookup returned status %d", resp.StatusCode)
	}

	var payload struct {
		Nome string `json:"nome"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return code, err
	}
	if payload.Nome == "" {
		return code, nil
	}

	if err := c.store.Set(ctx, code, payload.Nome); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "caching municipality name failed", "code", code, "error", err)
	}
	return payload.Nome, nil
}
