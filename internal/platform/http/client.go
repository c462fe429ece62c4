package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client is a wrapper for HTTP client with rate limiting, bounded retries and
// HMAC-SHA256 request signing.
type Client struct {
	HTTPClient *http.Client
	Limiter    *rate.Limiter

	apiKey        string
	apiSecret     string
	maxAttempts   int
	retryInterval time.Duration

	mu        sync.Mutex
	lastNonce int64
}

// ClientOptions holds options for creating a new Client
type ClientOptions struct {
	APIKey         string
	APISecret      string
	Timeout        time.Duration
	RequestsPerSec int
	MaxAttempts    int           // total attempts per call, transient failures only
	RetryInterval  time.Duration // initial backoff interval
}

// NewClient creates a new signed HTTP client with rate limiting
func NewClient(opts ClientOptions) *Client {
	// Set default values if not provided
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	if opts.MaxAttempts == 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryInterval == 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}

	return &Client{
		HTTPClient: &http.Client{
			Timeout: opts.Timeout,
		},
		Limiter:       rate.NewLimiter(rate.Every(time.Second), opts.RequestsPerSec),
		apiKey:        opts.APIKey,
		apiSecret:     opts.APISecret,
		maxAttempts:   opts.MaxAttempts,
		retryInterval: opts.RetryInterval,
	}
}

// Get performs an unsigned GET request against a public endpoint.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values) ([]byte, error) {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}
	return c.execute(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
}

// SignedPost performs a POST request with the API-key header and an
// HMAC-SHA256 signature over the canonical form body. A fresh monotonic
// timestamp is attached on every attempt so retries are not replay-rejected.
func (c *Client) SignedPost(ctx context.Context, rawURL string, params map[string]string) ([]byte, error) {
	return c.execute(ctx, func() (*http.Request, error) {
		signed := c.signParams(params)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(signed))
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// signParams canonicalizes params into a sorted query string, appends the
// timestamp nonce, and attaches the hex signature as the trailing parameter.
func (c *Client) signParams(params map[string]string) string {
	full := make(map[string]string, len(params)+1)
	for k, v := range params {
		full[k] = v
	}
	full["timestamp"] = strconv.FormatInt(c.nonce(), 10)

	keys := make([]string, 0, len(full))
	for k := range full {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+full[k])
	}
	payload := strings.Join(parts, "&")

	return payload + "&signature=" + c.sign(payload)
}

func (c *Client) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// nonce returns a strictly increasing millisecond timestamp.
func (c *Client) nonce() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixMilli()
	if now <= c.lastNonce {
		now = c.lastNonce + 1
	}
	c.lastNonce = now
	return now
}

// execute runs the request with rate limiting and bounded exponential-backoff
// retries. Auth and malformed-request failures are surfaced immediately;
// transient failures are retried until the attempt bound, then reported as
// RetryExhaustedError.
func (c *Client) execute(ctx context.Context, build func() (*http.Request, error)) ([]byte, error) {
	// Wait for rate limiter
	if err := c.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body []byte
	attempts := 0
	operation := func() error {
		attempts++
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return err // connection-level failure, retryable
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if statusErr := classifyStatus(resp.StatusCode, data); statusErr != nil {
			var se *ServerError
			if errors.As(statusErr, &se) {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body = data
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.InitialInterval = c.retryInterval
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	bounded := backoff.WithMaxRetries(backoffStrategy, uint64(c.maxAttempts-1))
	if err := backoff.Retry(operation, backoff.WithContext(bounded, ctx)); err != nil {
		if IsAuthError(err) || IsClientError(err) {
			return nil, err
		}
		return nil, &RetryExhaustedError{Attempts: attempts, Err: err}
	}

	return body, nil
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{StatusCode: status, Body: string(body)}
	case status == http.StatusTooManyRequests || status >= 500:
		return &ServerError{StatusCode: status, Body: string(body)}
	default:
		return &ClientError{StatusCode: status, Body: string(body)}
	}
}
