package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"time"
)

// Client wraps an http.Client with shared pacing and bounded retries.
//
// Transport errors and statuses in the retryable set are retried with
// exponential backoff and jitter; any other status is returned immediately
// for the caller to classify. When retries are exhausted on a retryable
// status the last response is returned as-is, not turned into an error.
type Client struct {
	http        *http.Client
	pacer       Pacer
	retryMax    int
	backoffBase time.Duration
	userAgent   string
	logger      *slog.Logger
}

type Config struct {
	UserAgent   string
	Timeout     time.Duration
	RetryMax    int // attempts after the first
	BackoffBase time.Duration
	Jar         http.CookieJar
}

func NewClient(cfg Config, pacer Pacer, logger *slog.Logger) *Client {
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     cfg.Jar,
		},
		pacer:       pacer,
		retryMax:    cfg.RetryMax,
		backoffBase: cfg.BackoffBase,
		userAgent:   cfg.UserAgent,
		logger:      logger,
	}
}

// Do performs method on url, pacing every attempt through the shared pacer.
// The caller owns the response body.
func (c *Client) Do(ctx context.Context, method, url string, headers http.Header) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if werr := c.pacer.Wait(ctx); werr != nil {
			return nil, werr
		}

		resp, err = c.attempt(ctx, method, url, headers)
		if err == nil && !Retryable(resp.StatusCode) {
			return resp, nil
		}

		if attempt == c.retryMax {
			break
		}

		wait := c.backoff(attempt, retryAfterHint(resp))
		if err != nil {
			c.logger.Warn("request failed, retrying",
				"method", method,
				"url", url,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		} else {
			c.logger.Warn("retryable status, retrying",
				"method", method,
				"url", url,
				"status", resp.StatusCode,
				"attempt", attempt,
				"wait", wait,
			)
			drainClose(resp)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("after %d attempts: %w", c.retryMax+1, err)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodGet, url, headers)
}

func (c *Client) Head(ctx context.Context, url string, headers http.Header) (*http.Response, error) {
	return c.Do(ctx, http.MethodHead, url, headers)
}

func (c *Client) attempt(ctx context.Context, method, url string, extra http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", defaultAccept)
	req.Header.Set("Accept-Language", defaultAcceptLanguage)
	for key, values := range extra {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	return c.http.Do(req)
}

// backoff computes the wait before retrying attempt (0-indexed):
// base*2^attempt plus uniform jitter in [0, base), raised to any numeric
// Retry-After hint the server supplied.
func (c *Client) backoff(attempt int, retryAfter time.Duration) time.Duration {
	wait := c.backoffBase * (1 << uint(attempt))
	if c.backoffBase > 0 {
		wait += time.Duration(rand.Int63n(int64(c.backoffBase)))
	}
	if retryAfter > wait {
		wait = retryAfter
	}
	return wait
}

// Retryable reports whether a status is worth another attempt. Anything
// else, 4xx included, is final and left to the caller to classify.
func Retryable(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func retryAfterHint(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	value := resp.Header.Get("Retry-After")
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func drainClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
