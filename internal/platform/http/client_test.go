package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(opts ClientOptions) *Client {
	if opts.APIKey == "" {
		opts.APIKey = "test-key"
	}
	if opts.APISecret == "" {
		opts.APISecret = "test-secret"
	}
	opts.RetryInterval = time.Millisecond
	opts.RequestsPerSec = 1000
	return NewClient(opts)
}

func TestGetRetriesExhaustOnServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	_, err := client.Get(context.Background(), server.URL, nil)

	assert.True(t, IsRetryExhausted(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetRetriesRateLimitResponses(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	_, err := client.Get(context.Background(), server.URL, nil)

	assert.True(t, IsRetryExhausted(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetAuthErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	_, err := client.Get(context.Background(), server.URL, nil)

	assert.True(t, IsAuthError(err))
	assert.False(t, IsRetryExhausted(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	_, err := client.Get(context.Background(), server.URL, nil)

	assert.True(t, IsClientError(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetRecoversAfterTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	body, err := client.Get(context.Background(), server.URL, nil)

	assert.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetEncodesQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	params := url.Values{}
	params.Set("symbol", "BTCUSDT")
	params.Set("limit", "100")

	client := testClient(ClientOptions{})
	_, err := client.Get(context.Background(), server.URL, params)
	assert.NoError(t, err)
}

func TestSignedPostAttachesKeyAndValidSignature(t *testing.T) {
	secret := "test-secret"
	received := make(chan string, 1)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		received <- string(body)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	client := testClient(ClientOptions{})
	_, err := client.SignedPost(context.Background(), server.URL, map[string]string{
		"symbol": "BTCUSDT",
		"side":   "BUY",
	})
	require.NoError(t, err)

	body := <-received

	// signature is the trailing parameter, over everything before it
	idx := strings.LastIndex(body, "&signature=")
	require.Greater(t, idx, 0)
	payload, gotSig := body[:idx], body[idx+len("&signature="):]

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	assert.Equal(t, hex.EncodeToString(mac.Sum(nil)), gotSig)

	// canonical payload is sorted and carries the timestamp nonce
	assert.True(t, strings.HasPrefix(payload, "side=BUY&symbol=BTCUSDT&timestamp="))
}

func TestNonceIsStrictlyIncreasing(t *testing.T) {
	client := testClient(ClientOptions{})

	prev := client.nonce()
	for i := 0; i < 1000; i++ {
		next := client.nonce()
		assert.Greater(t, next, prev)
		prev = next
	}
}

func TestSignedPostFreshTimestampPerAttempt(t *testing.T) {
	var mu sync.Mutex
	var timestamps []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		for _, part := range strings.Split(string(body), "&") {
			if strings.HasPrefix(part, "timestamp=") {
				timestamps = append(timestamps, part)
			}
		}
		mu.Unlock()
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := testClient(ClientOptions{MaxAttempts: 3})
	_, err := client.SignedPost(context.Background(), server.URL, map[string]string{"symbol": "BTCUSDT"})

	assert.True(t, IsRetryExhausted(err))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, timestamps, 3)
	assert.NotEqual(t, timestamps[0], timestamps[1])
	assert.NotEqual(t, timestamps[1], timestamps[2])
}
