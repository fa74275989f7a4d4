package archive

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/deletia/deletia/internal/pacing"
	"github.com/deletia/deletia/internal/retry"
)

// StatusError reports a non-success HTTP status from the archive.
type StatusError struct {
	// Code is the HTTP status code.
	Code int
	// URL is the request URL that produced the status.
	URL string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("archive returned %d %s for %s", e.Code, http.StatusText(e.Code), e.URL)
}

// DecodeError reports a response body that could not be parsed.
// Malformed responses are fatal for the attempt but still count as
// backpressure: the archive's edge tends to emit them when overloaded.
type DecodeError struct {
	// URL is the request URL whose body failed to decode.
	URL string
	// Err is the underlying parse error.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed archive response from %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying parse error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Classify maps an archive client error to its retry classification.
//
// Retryable: connection failures, timeouts, HTTP 429 and 5xx.
// Fatal: not found, authentication failures, malformed responses.
// 429 is the archive's throttling signal and is reported as such so the
// adaptive controller backs off; other transient failures report as plain
// errors.
func Classify(err error) retry.Classification {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.Code == http.StatusTooManyRequests:
			return retry.Classification{Outcome: pacing.OutcomeThrottled, Retryable: true}
		case statusErr.Code >= 500:
			return retry.Classification{Outcome: pacing.OutcomeError, Retryable: true}
		default:
			// 404, 403, 401 and friends will not change on retry.
			return retry.Classification{Outcome: pacing.OutcomeError, Retryable: false}
		}
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return retry.Classification{Outcome: pacing.OutcomeError, Retryable: false}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return retry.Classification{Outcome: pacing.OutcomeError, Retryable: true}
	}

	// Unidentified transport failures (connection reset, EOF) are worth
	// one more try.
	return retry.Classification{Outcome: pacing.OutcomeError, Retryable: true}
}
