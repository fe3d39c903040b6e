package geocode

import "fmt"

// NotFoundError is returned when the service answers with no candidates.
type NotFoundError struct {
	Address string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("geocode: no coordinates found for address: %s", e.Address)
}

// ParseError is returned when a 200 response body cannot be interpreted.
type ParseError struct {
	Address string
	Reason  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("geocode: error parsing JSON response for address: %s (%s)", e.Address, e.Reason)
}

// RateLimitError is returned once every retry of a 429 response is used up.
type RateLimitError struct {
	Address string
	Retries int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("geocode: rate limit exceeded for address: %s, maximum retries (%d) reached", e.Address, e.Retries)
}

// HTTPError is returned for any non-200 status other than 429.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("geocode: HTTP %d: %s", e.StatusCode, e.Body)
}

// TransportError wraps a connection-level failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("geocode: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
