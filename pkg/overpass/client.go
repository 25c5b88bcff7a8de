package overpass

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/NERVsystems/overpass/pkg/geo"
	"github.com/NERVsystems/overpass/pkg/monitoring"
	"github.com/NERVsystems/overpass/pkg/tracing"
	"github.com/NERVsystems/overpass/pkg/version"
)

const (
	// DefaultBaseURL is the public Overpass API endpoint.
	DefaultBaseURL = "https://overpass-api.de/api/interpreter"

	// DefaultUserAgent identifies the client to the API operators.
	DefaultUserAgent = "overpass-go/0.1.0"

	// Default response cache sizing.
	defaultCacheSize = 256
	defaultCacheTTL  = 5 * time.Minute
)

// Client issues queries against an Overpass API endpoint. Each Query is
// a single POST round trip wrapped with client-side pacing, an LRU
// response cache and deduplication of identical in-flight queries. A
// Client is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	endpoint   string
	userAgent  string
	logger     *slog.Logger
	limiter    *rate.Limiter
	cache      *expirable.LRU[string, *Response]
	group      singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoint sets the default Overpass endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) { c.endpoint = endpoint }
}

// WithUserAgent sets the User-Agent string sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithLogger sets the logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRateLimit sets the client-side pacing toward the endpoint. The
// public instances ask for at most one request per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithCache sizes the response cache. A size of zero disables caching.
func WithCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, *Response](size, nil, ttl)
	}
}

// NewClient creates a client for the public Overpass endpoint. Defaults:
// pooled HTTP transport with a 30s timeout, 1 request/second pacing, and
// a small TTL-bounded response cache.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
			Timeout: 30 * time.Second,
		},
		endpoint:  DefaultBaseURL,
		userAgent: DefaultUserAgent,
		logger:    slog.Default(),
		limiter:   rate.NewLimiter(rate.Limit(1), 1),
		cache:     expirable.NewLRU[string, *Response](defaultCacheSize, nil, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type queryOptions struct {
	endpoint string
	bbox     *geo.BoundingBox
}

// QueryOption configures a single Query call.
type QueryOption func(*queryOptions)

// WithBBox prepends a global [bbox:south,west,north,east] directive ahead
// of everything else in the assembled query.
func WithBBox(bbox geo.BoundingBox) QueryOption {
	return func(o *queryOptions) { o.bbox = &bbox }
}

// WithQueryEndpoint overrides the endpoint for a single call.
func WithQueryEndpoint(endpoint string) QueryOption {
	return func(o *queryOptions) { o.endpoint = endpoint }
}

// EnsureJSONOutput prepends the [out:json] setting unless the literal
// substring is already present anywhere in the query. The containment
// check is deliberately a raw substring test, not a parse: a query whose
// tag value contains that text is treated as already JSON-formatted.
func EnsureJSONOutput(query string) string {
	if strings.Contains(query, "[out:json]") {
		return query
	}
	return "[out:json];" + query
}

// assemble produces the query text that is transmitted: the [out:json]
// setting is ensured first, then the bbox directive, when present, goes
// ahead of everything.
func assemble(query string, bbox *geo.BoundingBox) string {
	q := EnsureJSONOutput(query)
	if bbox != nil {
		q = bbox.Directive() + q
	}
	return q
}

// Query submits an Overpass QL query and parses the reply. The query may
// be raw text or the rendering of an oql.Statement completed with an
// output statement. A single POST round trip is made per call; there is
// no retry. Errors are reported as *HTTPError for non-success statuses
// and *ParseError for malformed element lists.
func (c *Client) Query(ctx context.Context, query string, opts ...QueryOption) (*Response, error) {
	qo := queryOptions{endpoint: c.endpoint}
	for _, opt := range opts {
		opt(&qo)
	}
	if qo.bbox != nil {
		if err := qo.bbox.Validate(); err != nil {
			return nil, err
		}
	}

	q := assemble(query, qo.bbox)

	ctx, span := tracing.StartSpan(ctx, "overpass.query",
		trace.WithAttributes(
			attribute.String(tracing.AttrQueryEndpoint, qo.endpoint),
			attribute.Int(tracing.AttrQueryLength, len(q)),
		),
	)
	defer span.End()

	key := qo.endpoint + "\x00" + q
	if c.cache != nil {
		if resp, ok := c.cache.Get(key); ok {
			monitoring.CacheHits.Inc()
			tracing.SetAttributes(ctx, attribute.Bool(tracing.AttrCacheHit, true))
			return resp, nil
		}
		monitoring.CacheMisses.Inc()
	}

	// Identical concurrent queries share one round trip. The shared
	// fetch runs on a detached context so one caller's cancellation
	// cannot fail the other joiners; each caller still observes its own
	// ctx while waiting.
	ch := c.group.DoChan(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), qo.endpoint, q, key)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		span.SetStatus(codes.Error, "query cancelled")
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "query failed")
		return nil, res.Err
	}
	resp := res.Val.(*Response)
	span.SetAttributes(attribute.Int(tracing.AttrResultCount, resp.Len()))
	span.SetStatus(codes.Ok, "")
	return resp, nil
}

// Run submits the rendering of a builder statement. The statement text is
// passed through verbatim; callers append their own output statements
// (";out body;" and friends) when needed.
func (c *Client) Run(ctx context.Context, stmt fmt.Stringer, opts ...QueryOption) (*Response, error) {
	return c.Query(ctx, stmt.String(), opts...)
}

func (c *Client) fetch(ctx context.Context, endpoint, query, key string) (*Response, error) {
	if c.limiter != nil {
		waitStart := time.Now()
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		if wait := time.Since(waitStart); wait > 100*time.Millisecond {
			monitoring.RateLimitWaitTime.Observe(wait.Seconds())
			tracing.AddEvent(ctx, "rate_limit_wait",
				trace.WithAttributes(
					attribute.Int64(tracing.AttrRateLimitWaitMs, wait.Milliseconds()),
				),
			)
		}
	}

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating overpass request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		monitoring.RecordQuery(tracing.StatusError, time.Since(start).Seconds())
		return nil, fmt.Errorf("overpass request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	if err != nil {
		monitoring.RecordQuery(tracing.StatusError, duration.Seconds())
		return nil, fmt.Errorf("reading overpass response: %w", err)
	}

	tracing.SetAttributes(ctx, attribute.Int(tracing.AttrHTTPStatusCode, resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		monitoring.RecordQuery(strconv.Itoa(resp.StatusCode), duration.Seconds())
		c.logger.Debug("overpass query rejected",
			"status", resp.StatusCode,
			"endpoint", endpoint,
			"duration", duration,
		)
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	parsed, err := ParseResponse(body)
	if err != nil {
		monitoring.ParseFailures.Inc()
		monitoring.RecordQuery(tracing.StatusError, duration.Seconds())
		return nil, err
	}

	monitoring.RecordQuery(tracing.StatusSuccess, duration.Seconds())
	c.logger.Debug("overpass query complete",
		"elements", parsed.Len(),
		"endpoint", endpoint,
		"duration", duration,
	)

	if c.cache != nil {
		c.cache.Add(key, parsed)
	}
	return parsed, nil
}

// Ping checks that the configured endpoint is responsive. Server errors
// (5xx) fail the check; client errors do not, since the probe query is
// minimal.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating overpass health check request: %w", err)
	}
	req.URL.RawQuery = url.Values{"data": {"[out:json];out meta;"}}.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("overpass health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("overpass health check returned status %d", resp.StatusCode)
	}
	return nil
}

// Version reports the library build version.
func Version() string {
	return version.BuildVersion
}
