// Package fetch provides the JSON GET client shared by the vendor feeds.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"

	"github.com/pfrederiksen/lunch-menu-sync/internal/logger"
)

// Vendor endpoints sit behind browser-sniffing CDNs.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// Client fetches JSON documents with a fixed-delay retry policy. Vendor
// endpoints are flaky around publish time, so timeouts, transport errors,
// bad status codes, and undecodable bodies are all retried.
type Client struct {
	http        *resty.Client
	maxAttempts int
	retryDelay  time.Duration
}

// New creates a Client with the given per-request timeout, total attempt
// count, and fixed delay between attempts.
func New(timeout time.Duration, maxAttempts int, retryDelay time.Duration) *Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	c := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent)
	return &Client{
		http:        c,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// GetJSON fetches url with the given query params and decodes the body into
// out. Each failed attempt is logged; once the retry budget is exhausted
// the last error is returned and the caller decides whether that is fatal.
func (c *Client) GetJSON(ctx context.Context, url string, params map[string]string, out any) error {
	attempt := 0
	op := func() error {
		attempt++
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(url)
		if err != nil {
			logger.Warn("request failed",
				"url", url, "attempt", attempt, "max", c.maxAttempts, "err", err)
			return err
		}
		if resp.IsError() {
			err := fmt.Errorf("unexpected status code: %d", resp.StatusCode())
			logger.Warn("request rejected",
				"url", url, "attempt", attempt, "max", c.maxAttempts, "status", resp.StatusCode())
			return err
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			logger.Warn("decoding response failed",
				"url", url, "attempt", attempt, "max", c.maxAttempts, "err", err)
			return err
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.retryDelay), uint64(c.maxAttempts-1)),
		ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("fetching %s after %d attempts: %w", url, attempt, err)
	}
	return nil
}
