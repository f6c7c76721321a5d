package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/varoOP/animetrack/internal/cache"
	"github.com/varoOP/animetrack/internal/domain"
)

const (
	DefaultBaseURL      = "https://api.jikan.moe/v4"
	DefaultRequestDelay = 400 * time.Millisecond
	DefaultMaxRetries   = 3
	DefaultRetryDelay   = time.Second
	DefaultCacheTTL     = 5 * time.Minute

	userAgent = "animetrack (+https://github.com/varoOP/animetrack)"
)

// Client is the gateway to the Jikan API. Every request of a client goes
// through one FIFO queue drained by a single goroutine, so the provider's
// rate ceiling is respected no matter how many callers share the client.
type Client struct {
	log        zerolog.Logger
	baseURL    string
	httpc      *http.Client
	cache      *cache.TTLCache
	limiter    *rate.Limiter
	maxRetries uint
	retryDelay time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	pending []*job
	closed  bool
	wake    chan struct{}
}

type job struct {
	url    string
	result chan result
}

type result struct {
	body []byte
	err  error
}

type Option func(*Client)

// WithCache replaces the response cache, e.g. to share it or control its clock
func WithCache(c *cache.TTLCache) Option {
	return func(cl *Client) {
		cl.cache = c
	}
}

type userAgentTransport struct {
	Transport http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	return t.Transport.RoundTrip(req)
}

// NewClient creates a client and starts its queue. Zero values in cfg fall
// back to the package defaults. Close must be called to stop the queue.
func NewClient(log zerolog.Logger, cfg *domain.Config, httpc *http.Client, opts ...Option) *Client {
	baseURL := DefaultBaseURL
	delay := DefaultRequestDelay
	retries := uint(DefaultMaxRetries)
	retryDelay := DefaultRetryDelay
	ttl := DefaultCacheTTL
	timeout := 15 * time.Second

	if cfg != nil {
		if cfg.JikanBaseURL != "" {
			baseURL = cfg.JikanBaseURL
		}
		if cfg.RequestDelay > 0 {
			delay = cfg.RequestDelay
		}
		if cfg.MaxRetries > 0 {
			retries = cfg.MaxRetries
		}
		if cfg.RetryDelay > 0 {
			retryDelay = cfg.RetryDelay
		}
		if cfg.CacheTTL > 0 {
			ttl = cfg.CacheTTL
		}
		if cfg.HTTPTimeout > 0 {
			timeout = cfg.HTTPTimeout
		}
	}

	if httpc == nil {
		httpc = &http.Client{Timeout: timeout}
	}
	transport := httpc.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	wrapped := *httpc
	wrapped.Transport = &userAgentTransport{Transport: transport}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		log:        log.With().Str("module", "jikan").Logger(),
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpc:      &wrapped,
		cache:      cache.NewTTLCache(ttl),
		limiter:    rate.NewLimiter(rate.Every(delay), 1),
		maxRetries: retries,
		retryDelay: retryDelay,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		wake:       make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.drain()
	return c
}

// Close stops the queue. Requests still waiting fail with ErrClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	<-c.done
	return nil
}

// get resolves path and query into a URL, serves it from cache when possible
// and otherwise queues it. The decoded body is stored into v.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	u := c.resolve(path, query)

	if body, ok := c.cache.Get(u); ok {
		c.log.Trace().Str("url", u).Msg("cache hit")
		return decode(u, body, v)
	}

	body, err := c.enqueue(ctx, u)
	if err != nil {
		return err
	}
	return decode(u, body, v)
}

func (c *Client) resolve(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func decode(u string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return errors.Wrapf(err, "failed to unmarshal response from %s", u)
	}
	return nil
}

// enqueue appends a job to the queue and waits for its result. A cancelled
// ctx only stops the wait; the job itself still runs.
func (c *Client) enqueue(ctx context.Context, u string) ([]byte, error) {
	j := &job{url: u, result: make(chan result, 1)}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}
	c.pending = append(c.pending, j)
	queued := len(c.pending)
	c.mu.Unlock()

	c.log.Trace().Str("url", u).Int("queued", queued).Msg("request queued")

	select {
	case c.wake <- struct{}{}:
	default:
	}

	select {
	case r := <-j.result:
		return r.body, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// queued returns the number of jobs waiting to be dispatched
func (c *Client) queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

func (c *Client) next() (*job, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil, false
	}
	j := c.pending[0]
	c.pending[0] = nil
	c.pending = c.pending[1:]
	return j, true
}

func (c *Client) drain() {
	defer close(c.done)

	for {
		j, ok := c.next()
		if !ok {
			select {
			case <-c.wake:
				continue
			case <-c.ctx.Done():
				c.failPending()
				return
			}
		}

		if c.ctx.Err() != nil {
			j.result <- result{err: ErrClosed}
			continue
		}

		// an identical request queued earlier may have filled the cache
		if body, ok := c.cache.Get(j.url); ok {
			j.result <- result{body: body}
			continue
		}

		body, err := c.execute(j.url)
		if err == nil {
			c.cache.Set(j.url, body)
		}
		j.result <- result{body: body, err: err}
	}
}

func (c *Client) failPending() {
	c.mu.Lock()
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	for _, j := range pending {
		j.result <- result{err: ErrClosed}
	}
}

// execute runs the retry loop for one job. Backoff happens while the job
// still holds the head of the queue, which stalls every other request.
func (c *Client) execute(u string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			b, err := c.fetch(u)
			if err != nil {
				return err
			}
			body = b
			return nil
		},
		retry.Context(c.ctx),
		retry.Attempts(c.maxRetries),
		retry.Delay(c.retryDelay),
		retry.DelayType(c.backoff),
		retry.RetryIf(c.retryable),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn().Err(err).Str("url", u).Uint("attempt", n+1).Msg("request failed, retrying")
		}),
	)
	if err != nil {
		if c.ctx.Err() != nil {
			return nil, ErrClosed
		}
		c.log.Error().Err(err).Str("url", u).Msg("request failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, u, err)
	}

	c.log.Debug().Str("url", u).Int("bytes", len(body)).Msg("fetched")
	return body, nil
}

func (c *Client) fetch(u string) ([]byte, error) {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}

	c.log.Trace().Str("url", u).Msg("dispatch")
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &networkError{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        u,
			Message:    strings.TrimSpace(string(msg)),
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &networkError{err: err}
	}
	if !json.Valid(body) {
		return nil, errors.Errorf("invalid json from %s", u)
	}
	return body, nil
}

func (c *Client) retryable(err error) bool {
	if c.ctx.Err() != nil {
		return false
	}
	return IsTransient(err)
}

// backoff doubles the retry delay per attempt unless the provider sent a
// Retry-After header.
func (c *Client) backoff(n uint, err error, config *retry.Config) time.Duration {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter
	}
	return retry.BackOffDelay(n, err, config)
}
