package overpass

import (
	"fmt"
	"net/http"
)

// ErrorCode classifies client errors for callers that dispatch on kind
// rather than message text.
type ErrorCode string

const (
	ErrInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrRateLimit          ErrorCode = "RATE_LIMIT"
	ErrServiceTimeout     ErrorCode = "SERVICE_TIMEOUT"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// ParseError reports a response element that could not be mapped to the
// typed model: its type field was missing or none of node/way/relation.
// The whole parse is aborted; no partial response is returned.
type ParseError struct {
	Index int    // position in the elements array
	Type  string // declared type value, possibly empty
}

func (e *ParseError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("element %d: missing type field", e.Index)
	}
	return fmt.Sprintf("element %d: unknown element type %q", e.Index, e.Type)
}

// HTTPError reports a non-success status from the Overpass endpoint. It
// carries the raw response body; the client never retries, retry policy
// belongs to the caller.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("overpass: HTTP %d: %s. %s", e.StatusCode, e.Body, guidanceForStatus(e.StatusCode))
}

// Code maps the status to an ErrorCode.
func (e *HTTPError) Code() ErrorCode {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return ErrRateLimit
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrServiceTimeout
	case http.StatusBadRequest:
		return ErrInvalidInput
	default:
		return ErrServiceUnavailable
	}
}

// guidanceForStatus returns recovery advice for the given HTTP status,
// mirroring how the Overpass public instances behave under load.
func guidanceForStatus(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "The Overpass API is rate-limited. Please try again in a few moments."
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return "The request timed out. Try reducing the search area or simplifying the query."
	case http.StatusBadRequest:
		return "There's an issue with the query format. Check the query syntax and try again."
	case http.StatusServiceUnavailable:
		return "The Overpass API is temporarily unavailable. Please try again later."
	default:
		return "Please try again later or modify your request parameters."
	}
}
