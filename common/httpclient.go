package common

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// HttpClient is an interface for HTTP operations with optional retry logic.
// This allows mocking or custom transport layers in testing.
type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
	// StandardClient exposes the configured *http.Client for SDKs that need one.
	StandardClient() *http.Client
	CloseIdleConnections()
	RetryWithExponentialBackoff(operation func() (interface{}, error)) (interface{}, error)
	SetMaxRetries(n int)
	SetRandAndSleepForTest(sleep func(d time.Duration), seed int64)
}

// HTTPError is a custom error that captures unexpected status codes and response bodies.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status code: %d, body: %s", e.StatusCode, string(e.Body))
}

// userAgentRoundTripper is a custom RoundTripper that adds a User-Agent header.
type userAgentRoundTripper struct {
	Wrapped   http.RoundTripper
	UserAgent string
}

func (rt *userAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	// clone request to avoid mutating the original
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", rt.UserAgent)
	return rt.Wrapped.RoundTrip(clone)
}

// Implementation of HttpClient that wraps a standard *http.Client with retry logic.
type httpClient struct {
	client     *http.Client
	sleepFunc  func(d time.Duration)
	rnd        *rand.Rand
	maxRetries int
}

// DefaultTimeout applies when NewHttpClient is given a zero timeout.
const DefaultTimeout = 10 * time.Second

// NewHttpClient returns a new HttpClient with a custom User-Agent. When ts is
// non-nil every request carries its bearer token.
func NewHttpClient(userAgent string, base *http.Client, ts oauth2.TokenSource, timeout time.Duration) HttpClient {
	if base == nil {
		base = &http.Client{}
	}
	if base.Transport == nil {
		base.Transport = http.DefaultTransport
	}
	var transport http.RoundTripper = &userAgentRoundTripper{
		Wrapped:   base.Transport,
		UserAgent: userAgent,
	}
	if ts != nil {
		transport = &oauth2.Transport{Source: ts, Base: transport}
	}
	base.Transport = transport

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base.Timeout = timeout

	return &httpClient{
		client:     base,
		sleepFunc:  time.Sleep,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
		maxRetries: defaultMaxRetries,
	}
}

func (h *httpClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *httpClient) StandardClient() *http.Client {
	return h.client
}

func (h *httpClient) CloseIdleConnections() {
	h.client.CloseIdleConnections()
}

// Exponential backoff constants
const (
	defaultMaxRetries = 5
	baseDelay         = 1 * time.Second
	maxDelay          = 32 * time.Second
)

// SetMaxRetries bounds the number of attempts made by RetryWithExponentialBackoff.
// Values below 1 mean a single attempt.
func (h *httpClient) SetMaxRetries(n int) {
	if n < 1 {
		n = 1
	}
	h.maxRetries = n
}

// RetryWithExponentialBackoff attempts the given operation() multiple times if
// we encounter a retryable error: a 5xx HTTPError or anything classified as a
// TransportError. Auth failures and not-found results are returned at once.
func (h *httpClient) RetryWithExponentialBackoff(operation func() (interface{}, error)) (interface{}, error) {
	var result interface{}
	var err error
	delay := baseDelay

	for i := 0; i < h.maxRetries; i++ {
		if result, err = operation(); err == nil {
			return result, nil
		}
		if !retryable(err) || i == h.maxRetries-1 {
			break
		}

		// apply jitter
		jitter := time.Duration(h.rnd.Int63n(int64(delay)))
		h.sleepFunc(delay + jitter)

		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, err
}

func retryable(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	return IsRetryable(err)
}

func (h *httpClient) SetRandAndSleepForTest(sleep func(d time.Duration), seed int64) {
	h.sleepFunc = sleep
	h.rnd = rand.New(rand.NewSource(seed))
}
