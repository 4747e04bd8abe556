package toolset

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const providerTimeout = 30 * time.Second

// Client is the shared outbound HTTP client for provider calls: one
// connection pool and one rate limiter across all executors, so a burst of
// concurrent tool calls in a single turn cannot hammer upstream APIs.
// Constructed once and injected into every executor.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a provider client with the default timeout and rate
// limits.
func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: providerTimeout},
		limiter: rate.NewLimiter(rate.Limit(20), 40),
	}
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	return c.roundTrip(ctx, http.MethodGet, url, nil, out)
}

func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.roundTrip(ctx, http.MethodPost, url, payload, out)
}

func (c *Client) roundTrip(ctx context.Context, method, url string, body []byte, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// encodeURL percent-encodes embedded whitespace so result URLs stay
// clickable when rendered.
func encodeURL(raw string) string {
	return strings.ReplaceAll(raw, " ", "%20")
}
