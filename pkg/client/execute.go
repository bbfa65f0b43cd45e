package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tabular-dev/data-api-connector/pkg/cache"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 64 << 20

// defaultRetryAfter is used when a 429 carries no usable Retry-After.
const defaultRetryAfter = 60 * time.Second

// Request describes one logical API call. Only GET and POST are
// supported; anything else fails without touching the transport.
type Request struct {
	Method   string
	Endpoint string
	Params   url.Values
	Body     any
}

// rawResponse is a fully-read successful response.
type rawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Get performs a GET request and returns the decoded JSON body.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
}

// Post performs a POST request with a JSON body and returns the decoded
// JSON response body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) (any, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Body: body})
}

// Do executes one logical request to completion: success, terminal
// failure, or retries exhausted. Transient transport failures and
// provider throttling (429) are absorbed here; every other non-2xx
// status surfaces immediately as an *HTTPError.
func (c *Client) Do(ctx context.Context, req Request) (any, error) {
	raw, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if len(raw.Body) == 0 {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(raw.Body, &v); err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}

// FetchPage fetches a single page of a paginated endpoint and reports
// the total page count from the X-Total-Pages header (1 when absent).
// It satisfies the pagination.PageFetcher contract.
func (c *Client) FetchPage(ctx context.Context, endpoint string, pageNum int) ([]byte, int, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(pageNum))

	raw, err := c.do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
	if err != nil {
		return nil, 0, err
	}

	totalPages := 1
	if v := raw.Header.Get("X-Total-Pages"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			totalPages = n
		}
	}

	return raw.Body, totalPages, nil
}

func (c *Client) do(ctx context.Context, req Request) (*rawResponse, error) {
	if req.Method != http.MethodGet && req.Method != http.MethodPost {
		errorsTotal.WithLabelValues(string(ClassClient)).Inc()
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}

	endpoint := req.Endpoint
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(startTime).Seconds())
	}()

	// Cache lookup (GET only). Fresh entries are served directly and
	// never consume rate limit budget; stale entries with a validator
	// are revalidated with conditional headers.
	var cached *cache.Entry
	var key cache.Key
	if c.store != nil && req.Method == http.MethodGet {
		key = cache.Key{Endpoint: endpoint, Params: req.Params}
		if entry, err := c.store.Get(key); err == nil {
			switch {
			case !entry.IsExpired():
				c.logger.Debug().Str("endpoint", endpoint).Msg("Serving response from cache")
				requestsTotal.WithLabelValues(endpoint, "cache").Inc()
				return &rawResponse{StatusCode: entry.StatusCode, Header: entry.Header, Body: entry.Data}, nil
			case cache.ShouldRevalidate(entry):
				cached = entry
			default:
				c.store.Delete(key)
			}
		}
	}

	var payload []byte
	if req.Body != nil {
		var err error
		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
	}

	headers := BuildHeaders(c.config)
	fullURL := joinURL(c.config.BaseURL, endpoint)

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if err := c.limiter.Acquire(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCancelled, err)
		}

		httpReq, err := c.newHTTPRequest(ctx, req, fullURL, headers, payload, cached)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}

		raw, err := c.send(httpReq)
		if err != nil {
			errorsTotal.WithLabelValues(string(ClassNetwork)).Inc()
			c.logger.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Msg("Transport failure")

			if attempt == c.config.MaxRetries {
				requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
				return nil, &RequestError{Attempts: attempt + 1, Err: err}
			}

			// Exponential backoff: 1, 2, 4, ... units from attempt 0.
			backoff := backoffFor(c.config.InitialBackoff, attempt)
			retriesTotal.WithLabelValues(string(ClassNetwork)).Inc()
			retryBackoffSeconds.WithLabelValues(string(ClassNetwork)).Observe(backoff.Seconds())
			c.logger.Debug().
				Str("endpoint", endpoint).
				Dur("backoff", backoff).
				Msg("Retrying after backoff")

			if err := sleepContext(ctx, backoff); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case raw.StatusCode == http.StatusTooManyRequests:
			delay := retryAfter(raw.Header)
			errorsTotal.WithLabelValues(string(ClassRateLimit)).Inc()
			requestsTotal.WithLabelValues(endpoint, "429").Inc()
			retriesTotal.WithLabelValues(string(ClassRateLimit)).Inc()
			c.logger.Warn().
				Str("endpoint", endpoint).
				Int("attempt", attempt).
				Dur("retry_after", delay).
				Msg("Provider rate limited the request")

			// The server-advertised delay replaces exponential backoff
			// on this path.
			if err := sleepContext(ctx, delay); err != nil {
				return nil, err
			}

		case raw.StatusCode == http.StatusNotModified && cached != nil:
			requestsTotal.WithLabelValues(endpoint, "304").Inc()
			cache.NotModifiedResponses.Inc()
			c.logger.Debug().Str("endpoint", endpoint).Msg("304 Not Modified, using cached body")

			if expires, ok := cache.ParseExpires(raw.Header); ok {
				if err := c.store.UpdateTTL(key, expires); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to refresh cache TTL")
				}
			}
			return &rawResponse{StatusCode: http.StatusOK, Header: cached.Header, Body: cached.Data}, nil

		case raw.StatusCode >= 200 && raw.StatusCode < 300:
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(raw.StatusCode)).Inc()

			if c.store != nil && req.Method == http.MethodGet {
				entry := cache.NewEntry(raw.StatusCode, raw.Header, raw.Body)
				if err := c.store.Set(key, entry); err != nil {
					c.logger.Warn().Err(err).Msg("Failed to cache response")
				}
			}
			return raw, nil

		default:
			class := classify(raw.StatusCode, nil)
			errorsTotal.WithLabelValues(string(class)).Inc()
			requestsTotal.WithLabelValues(endpoint, strconv.Itoa(raw.StatusCode)).Inc()
			c.logger.Error().
				Str("endpoint", endpoint).
				Int("status", raw.StatusCode).
				Str("error_class", string(class)).
				Msg("Request failed with terminal HTTP status")

			return nil, &HTTPError{StatusCode: raw.StatusCode, Body: string(raw.Body)}
		}
	}

	retriesExhaustedTotal.Inc()
	c.logger.Warn().
		Str("endpoint", endpoint).
		Int("attempts", c.config.MaxRetries+1).
		Msg("Retry attempts exhausted")

	return nil, fmt.Errorf("%w after %d attempts", ErrRetriesExhausted, c.config.MaxRetries+1)
}

// newHTTPRequest builds the physical request for one attempt. A fresh
// body reader is needed per attempt, so this runs inside the loop.
func (c *Client) newHTTPRequest(ctx context.Context, req Request, fullURL string, headers http.Header, payload []byte, cached *cache.Entry) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, err
	}

	if len(req.Params) > 0 {
		httpReq.URL.RawQuery = req.Params.Encode()
	}

	httpReq.Header = headers.Clone()
	if cached != nil {
		cache.AddConditionalHeaders(httpReq, cached)
	}

	return httpReq, nil
}

// send dispatches the request and reads the full body. Read failures
// count as transport failures.
func (c *Client) send(req *http.Request) (*rawResponse, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	return &rawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
	}, nil
}

// maxBackoff caps exponential growth; a large retry budget must not
// shift the duration into overflow.
const maxBackoff = 5 * time.Minute

// backoffFor doubles the initial backoff per attempt, clamped to
// maxBackoff.
func backoffFor(initial time.Duration, attempt int) time.Duration {
	backoff := initial
	for i := 0; i < attempt; i++ {
		backoff <<= 1
		if backoff >= maxBackoff || backoff <= 0 {
			return maxBackoff
		}
	}
	if backoff > maxBackoff {
		return maxBackoff
	}
	return backoff
}

// retryAfter reads the Retry-After header in seconds, falling back to
// defaultRetryAfter when absent or unparseable.
func retryAfter(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return defaultRetryAfter
	}

	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}

// joinURL joins the base URL and endpoint with exactly one slash.
func joinURL(base, endpoint string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(endpoint, "/")
}

// sleepContext sleeps for d, aborting with ErrCancelled when ctx ends.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
