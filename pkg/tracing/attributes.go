package tracing

// Attribute keys for Overpass client operations
const (
	// Query attributes
	AttrQueryLength   = "oql.query.length"
	AttrQueryEndpoint = "oql.query.endpoint"
	AttrResultCount   = "oql.result.count"

	// Cache attributes
	AttrCacheHit = "osm.cache.hit"
	AttrCacheKey = "osm.cache.key"

	// Rate limiting attributes
	AttrRateLimitWaitMs = "osm.ratelimit.wait_ms"

	// HTTP transport attributes
	AttrHTTPMethod     = "http.method"
	AttrHTTPStatusCode = "http.status_code"

	// Error attributes
	AttrErrorType    = "error.type"
	AttrErrorMessage = "error.message"
)

// Status values
const (
	StatusSuccess     = "success"
	StatusError       = "error"
	StatusTimeout     = "timeout"
	StatusRateLimited = "rate_limited"
)
