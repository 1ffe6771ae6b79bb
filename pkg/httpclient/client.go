// Package httpclient provides the shared HTTP client construction and the
// error type used for non-2xx responses across all remote calls.
package httpclient

import (
	"fmt"
	"net/http"
	"time"
)

// New creates an HTTP client with the given total request timeout.
// Redirects are followed with Go's default policy, which matters for
// content URLs that redirect to signed storage locations.
func New(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
	}
}

// StatusError reports a non-2xx HTTP response. It aborts whatever unit of
// work triggered the request; callers match it with errors.As.
type StatusError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %s for %s", e.Status, e.URL)
}

// CheckStatus returns a *StatusError unless the response status is 2xx.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return &StatusError{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
	}
}
