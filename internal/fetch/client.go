package fetch

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"sjsage522/estateworker/helpers"
	"sjsage522/estateworker/internal/retry"
	"sjsage522/estateworker/logger"
	crawlerrors "sjsage522/estateworker/pkg/errors"
)

// maxBodyBytes bounds how much of a page is read into memory
const maxBodyBytes = 8 << 20

// Fetcher performs one polite GET for an HTML page and returns its UTF-8 body
type Fetcher interface {
	Fetch(ctx context.Context, rawURL, referer string) ([]byte, error)
}

// Client is the HTTP Fetcher used against live sites
type Client struct {
	http    *http.Client
	policy  retry.Policy
	timeout time.Duration
	log     *logger.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithPolicy sets the retry policy
func WithPolicy(p retry.Policy) Option {
	return func(c *Client) { c.policy = p }
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the logger used for retry notices
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// NewClient creates a Client with a 20s timeout and the default retry policy
func NewClient(opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{},
		policy:  retry.DefaultPolicy(),
		timeout: 20 * time.Second,
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the retry policy in use
func (c *Client) Policy() retry.Policy {
	return c.policy
}

// Timeout returns the per-attempt timeout
func (c *Client) Timeout() time.Duration {
	return c.timeout
}

// Fetch gets rawURL with a rotated browser identity, retrying transient failures
func (c *Client) Fetch(ctx context.Context, rawURL, referer string) ([]byte, error) {
	host := hostOf(rawURL)

	var body []byte
	err := retry.Do(ctx, c.policy, func(attempt int, wait time.Duration, err error) {
		c.log.Debug().
			Str("url", rawURL).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying fetch")
	}, func(int) error {
		b, err := c.once(ctx, host, rawURL, referer)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) once(ctx context.Context, host, rawURL, referer string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, crawlerrors.NewInvalidInput(host, "invalid page url "+rawURL)
	}
	helpers.SetPageHeaders(req.Header, referer)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, crawlerrors.NewTransport(host, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, crawlerrors.NewHTTPStatus(host, rawURL, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, crawlerrors.NewTransport(host, "failed to read response body", err)
	}

	body, err := helpers.DecodeBody(raw, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, crawlerrors.NewMarkupParse(host, "undecodable body", err)
	}
	return body, nil
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
