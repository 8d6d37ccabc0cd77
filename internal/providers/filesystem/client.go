package filesystem

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// Client wraps resty with rate limiting for source downloads
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	mu      sync.RWMutex
}

// NewClient creates the download client
func NewClient(cfg DownloadConfig) *Client {
	// Create underlying retryable client
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryMax
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryMax).
		SetRetryWaitTime(cfg.RetryWaitMin).
		SetRetryMaxWaitTime(cfg.RetryWaitMax).
		SetHeader("User-Agent", cfg.UserAgent)

	// Configure transport settings
	restyClient.SetTransport(retryClient.HTTPClient.Transport)
	restyClient.AddRetryCondition(retryPolicy)

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := int(cfg.RateLimit)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{Resty: restyClient, Limiter: limiter}
}

// Request creates a request after waiting for the rate limiter
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// retryPolicy applies retryablehttp's policy: connection errors, 429 and
// 5xx other than 501 are retried
func retryPolicy(r *resty.Response, err error) bool {
	ctx := context.Background()
	var raw *http.Response
	if r != nil {
		raw = r.RawResponse
		if r.Request != nil {
			ctx = r.Request.Context()
		}
	}
	if raw == nil && err == nil {
		return false
	}
	retry, _ := retryablehttp.DefaultRetryPolicy(ctx, raw, err)
	return retry
}
