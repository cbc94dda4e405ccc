package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"cafedoko/pkg/logging"
	"cafedoko/pkg/tracker"
	"cafedoko/pkg/version"
)

var (
	defaultUserAgent = fmt.Sprintf("cafedoko/%s (+https://github.com/cafedoko/cafedoko)", version.Version)
)

// ErrReadBody wraps failures while reading a response body.
var ErrReadBody = errors.New("failed to read response body")

// Response is a fully read HTTP response. Status codes are not interpreted.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client sends HTTP requests through one sequential queue per host and tracks the outcome.
// It never retries; callers decide what a failure means.
type Client struct {
	httpClient *http.Client
	tracker    *tracker.Tracker
	gap        time.Duration

	// Queues per source (host)
	queues map[string]chan job
	mu     sync.Mutex // Protects queues map
}

// job represents a queued request.
type job struct {
	req      *http.Request
	respChan chan jobResult
}

type jobResult struct {
	resp *Response
	err  error
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout of the underlying http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithGap sets the pause between two requests to the same host.
func WithGap(d time.Duration) Option {
	return func(c *Client) { c.gap = d }
}

// New creates a new Client.
func New(t *tracker.Tracker, opts ...Option) *Client {
	if t == nil {
		t = tracker.New()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tracker:    t,
		gap:        100 * time.Millisecond,
		queues:     make(map[string]chan job),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get performs a GET request with custom headers.
func (c *Client) Get(ctx context.Context, u string, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, headers)
	return c.Do(req)
}

// Post performs a POST request with custom headers.
func (c *Client) Post(ctx context.Context, u string, body []byte, headers map[string]string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, headers)
	return c.Do(req)
}

// Do queues req behind earlier requests to the same host and waits for the response.
func (c *Client) Do(req *http.Request) (*Response, error) {
	if req.URL == nil || req.URL.Host == "" {
		return nil, fmt.Errorf("invalid url: %v", req.URL)
	}
	source := SourceName(req.URL.Host)
	ctx := req.Context()

	respChan := make(chan jobResult, 1)
	c.dispatch(source, job{req: req, respChan: respChan})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-respChan:
		return res.resp, res.err
	}
}

// Tracker returns the tracker the client reports to.
func (c *Client) Tracker() *tracker.Tracker {
	return c.tracker
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// SourceName groups hosts into the names used for stats.
func SourceName(host string) string {
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	if host == "places.googleapis.com" {
		return "google_places"
	}
	return host
}

// dispatch sends the job to the source's queue, creating the queue/worker if needed.
func (c *Client) dispatch(source string, j job) {
	c.mu.Lock()
	q, ok := c.queues[source]
	if !ok {
		// Create new queue and start worker
		q = make(chan job, 100)
		c.queues[source] = q
		go c.worker(source, q)
	}
	c.mu.Unlock()

	// We block here if the queue is full, effectively throttling the caller
	select {
	case q <- j:
	case <-j.req.Context().Done():
		// Caller gave up before we could even enqueue
		j.respChan <- jobResult{err: j.req.Context().Err()}
	}
}

// worker processes requests for a specific source sequentially.
func (c *Client) worker(source string, q <-chan job) {
	for j := range q {
		// Check context before processing
		if j.req.Context().Err() != nil {
			slog.Warn("Job dropped from queue (context expired)", "source", source, "error", j.req.Context().Err())
			j.respChan <- jobResult{err: j.req.Context().Err()}
			continue
		}

		if j.req.Header.Get("User-Agent") == "" {
			j.req.Header.Set("User-Agent", defaultUserAgent)
		}

		resp, err := c.execute(j.req)
		if err != nil {
			c.tracker.TrackAPIFailure(source)
		} else {
			c.tracker.TrackResponse(source, resp.StatusCode)
		}

		j.respChan <- jobResult{resp: resp, err: err}

		if c.gap > 0 {
			time.Sleep(c.gap)
		}
	}
}

// execute performs a single round trip and reads the whole body.
func (c *Client) execute(req *http.Request) (*Response, error) {
	start := time.Now()
	slog.Debug("Network Request", "method", req.Method, "host", req.URL.Host, "path", req.URL.Path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logRequest(req, 0, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logRequest(req, resp.StatusCode, time.Since(start), err)
		return nil, fmt.Errorf("%w: %w", ErrReadBody, err)
	}

	logRequest(req, resp.StatusCode, time.Since(start), nil)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

func logRequest(req *http.Request, status int, elapsed time.Duration, err error) {
	if logging.RequestLogger == nil {
		return
	}
	u := *req.URL
	u.RawQuery = redactQuery(u.Query())
	if err != nil {
		logging.RequestLogger.Warn("Outbound request failed",
			"method", req.Method, "url", u.String(), "duration", elapsed, "error", err)
		return
	}
	logging.RequestLogger.Info("Outbound request",
		"method", req.Method, "url", u.String(), "status", status, "duration", elapsed)
}

// redactQuery hides credential-looking query parameters.
func redactQuery(q url.Values) string {
	for k := range q {
		switch strings.ToLower(k) {
		case "key", "api_key", "apikey", "token", "access_token":
			q.Set(k, "REDACTED")
		}
	}
	return q.Encode()
}
