// Package httputil provides the retrying HTTP client shared by the outbound
// provider integrations.
package httputil

import (
	"errors"
	"math/rand"
	"net"
	"net/http"
	"time"
)

// RetryConfig bounds the retry loop. Zero-valued fields take the package
// defaults.
type RetryConfig struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:   3,
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
}

// RetryClient wraps an http.Client with exponential backoff on transient
// failures: network timeouts, 429 and 5xx responses.
type RetryClient struct {
	client *http.Client
	config RetryConfig
}

func NewRetryClient(client *http.Client, config RetryConfig) *RetryClient {
	if client == nil {
		client = http.DefaultClient
	}
	defaults := DefaultRetryConfig()
	if config.MaxRetries == 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialDelay == 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay == 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.Multiplier == 0 {
		config.Multiplier = defaults.Multiplier
	}
	return &RetryClient{client: client, config: config}
}

// NewSearchClient builds the client the stock media providers share: a
// bounded per-request timeout over the default backoff schedule.
func NewSearchClient(timeout time.Duration) *RetryClient {
	return NewRetryClient(&http.Client{Timeout: timeout}, DefaultRetryConfig())
}

// Do issues the request, replaying the body through GetBody on each retry.
// The backoff sleep aborts as soon as the request context is canceled.
func (c *RetryClient) Do(req *http.Request) (*http.Response, error) {
	delay := c.config.InitialDelay

	for attempt := 0; ; attempt++ {
		resp, err := c.client.Do(req)
		if !shouldRetry(resp, err) || attempt == c.config.MaxRetries {
			return resp, err
		}
		if resp != nil {
			_ = resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(jitter(delay)):
		}
		delay = min(time.Duration(float64(delay)*c.config.Multiplier), c.config.MaxDelay)

		if req.GetBody != nil {
			body, bodyErr := req.GetBody()
			if bodyErr != nil {
				return nil, bodyErr
			}
			req.Body = body
		}
	}
}

func shouldRetry(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		var opErr *net.OpError
		var dnsErr *net.DNSError
		return errors.As(err, &opErr) || errors.As(err, &dnsErr)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return resp.StatusCode >= 500 && resp.StatusCode < 600
}

// jitter spreads concurrent retries over a 10% band around the nominal delay.
func jitter(delay time.Duration) time.Duration {
	factor := 0.9 + rand.Float64()*0.2
	return time.Duration(float64(delay) * factor)
}
