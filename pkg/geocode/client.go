// Package geocode resolves free-text addresses to coordinates using the
// geocode.maps.co search API, retrying with exponential backoff on HTTP 429.
package geocode

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/coordfill/internal/resilience"
)

// DefaultBaseURL is the geocode.maps.co forward search endpoint.
const DefaultBaseURL = "https://geocode.maps.co/search"

// Coordinates holds a resolved position. Values are kept in the textual form
// returned by the service so they can be written back unchanged.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Float parses the coordinates as decimal degrees.
func (c Coordinates) Float() (lat, lon float64, err error) {
	lat, err = strconv.ParseFloat(c.Lat, 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode: parse lat")
	}
	lon, err = strconv.ParseFloat(c.Lon, 64)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geocode: parse lon")
	}
	return lat, lon, nil
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL overrides the search endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithRateLimit caps outgoing requests (including retries) per second.
// Zero or a negative value disables the limiter.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithRetryConfig replaces the 429 retry policy. ShouldRetry is always forced
// to rate-limit responses only.
func WithRetryConfig(cfg resilience.RetryConfig) Option {
	return func(c *Client) {
		c.retry = cfg
	}
}

// Client looks up coordinates for one address at a time.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
}

// NewClient creates a Client authenticating with apiKey.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		retry:      resilience.FromRetryConfig(5, 1000, 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retry.ShouldRetry = resilience.IsRateLimited
	return c
}

// MaxRetries is the number of rate-limited retries performed after the
// first attempt before giving up.
func (c *Client) MaxRetries() int {
	return max(c.retry.MaxAttempts-1, 0)
}

// Geocode resolves address to the first candidate returned by the service.
//
// A 429 response is retried up to MaxRetries times, waiting
// InitialBackoff*Multiplier^attempt between tries. Every other outcome is
// returned immediately as one of NotFoundError, ParseError, HTTPError or
// TransportError; exhausting the retries yields a RateLimitError.
func (c *Client) Geocode(ctx context.Context, address string) (*Coordinates, error) {
	query := normalizeAddress(address)
	log := zap.L().With(zap.String("address", address))

	retry := c.retry
	userOnRetry := retry.OnRetry
	retry.OnRetry = func(attempt int, delay time.Duration, err error) {
		log.Warn("rate limit exceeded, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
		)
		if userOnRetry != nil {
			userOnRetry(attempt, delay, err)
		}
	}

	coords, err := resilience.DoVal(ctx, retry, func(ctx context.Context, attempt int) (*Coordinates, error) {
		return c.search(ctx, address, query, attempt)
	})
	if err == nil {
		return coords, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, eris.Wrap(ctxErr, "geocode: search cancelled")
	}
	if resilience.IsRateLimited(err) {
		return nil, &RateLimitError{Address: address, Retries: c.MaxRetries()}
	}
	return nil, err
}
