// Package source provides the shared HTTP plumbing for the external data
// providers the ETL layer pulls from.
//
// Every provider client wraps a source.Client, which owns the rate limiter,
// request timeout, User-Agent, and JSON decoding. Providers differ only in
// their endpoints and payload shapes.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/pharmintel/pharmintel/internal/config"
)

// maxErrorBodyBytes caps how much of an error response body is kept for
// the error message.
const maxErrorBodyBytes = 512

// StatusError is returned for non-2xx responses. Body holds at most the
// first maxErrorBodyBytes of the response.
type StatusError struct {
	Status int
	Host   string
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s: %s", e.Status, e.Host, e.Body)
}

// IsNotFound reports whether err is a provider 404. Some providers
// (OpenFDA) answer 404 for empty result sets rather than an empty body.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound
}

// Client is a rate-limited JSON HTTP client for one external provider.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	baseURL   string
	userAgent string
	apiKey    string
	log       zerolog.Logger
}

// NewClient builds a provider client from its config block. defaultRPS is
// used when the config leaves the rate unset; name tags log lines and the
// User-Agent.
func NewClient(name string, cfg config.SourceConfig, defaultRPS float64, contact string, log *zerolog.Logger) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	userAgent := "pharmintel/1.0"
	if contact != "" {
		userAgent = fmt.Sprintf("pharmintel/1.0 (%s)", contact)
	}

	return &Client{
		http:      &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: userAgent,
		apiKey:    cfg.APIKey,
		log:       log.With().Str("source", name).Logger(),
	}
}

// APIKey returns the configured provider API key, empty when unset.
func (c *Client) APIKey() string {
	return c.apiKey
}

// GetJSON performs a rate-limited GET against path (joined to the base
// URL) with the given query parameters, decoding the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	return c.do(req, out)
}

// PostJSON performs a rate-limited POST with a JSON body, decoding the
// response into out. Used by the GraphQL and search-query providers.
func (c *Client) PostJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}

	u := c.baseURL
	if path != "" {
		u += "/" + strings.TrimLeft(path, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do waits for the rate limiter, executes the request, and decodes a 2xx
// JSON response into out. Non-2xx responses become errors carrying the
// status and a snippet of the body.
func (c *Client) do(req *http.Request, out any) error {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return err
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("source request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return &StatusError{
			Status: resp.StatusCode,
			Host:   req.URL.Host,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	return nil
}
