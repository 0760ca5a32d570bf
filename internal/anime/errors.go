package anime

import (
	"errors"
	"fmt"
)

// HTTPStatusError is returned when the episode-list endpoint answers with a
// non-2xx status code.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is worth another attempt.
// Rate-limit and server-side failures may clear up; 404/410 mean the
// identifier does not exist and never will.
func (e *HTTPStatusError) Retryable() bool {
	switch {
	case e.StatusCode == 429:
		return true
	case e.StatusCode >= 500:
		return true
	default:
		return false
	}
}

// IsHTTPStatusError reports whether err is an HTTPStatusError (even when wrapped).
func IsHTTPStatusError(err error) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr)
}

// ParseError is returned when a fetched document does not contain the
// expected episode-list structure. Retrying a mis-shaped page will not
// change it, so parse errors are always terminal for the identifier.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return "parse: " + e.Reason
}

// IsParseError reports whether err is a ParseError (even when wrapped).
func IsParseError(err error) bool {
	var parseErr *ParseError
	return errors.As(err, &parseErr)
}
