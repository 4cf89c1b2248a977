package client

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

const maxErrorBodyBytes = 1024

// RequestError is returned for any API response with a non-success status.
// Body holds an excerpt of the response body for diagnostics.
type RequestError struct {
	StatusCode int
	URL        string
	Body       string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("HTTP %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// IsNotFound reports whether err is a RequestError with status 404.
func IsNotFound(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr) && reqErr.StatusCode == http.StatusNotFound
}

// CheckResponse validates the response status. With no allowed statuses given
// any 2xx passes. On failure the body is partially read into the returned
// RequestError; the response body itself is left for the caller to close.
func CheckResponse(resp *http.Response, allowed ...int) error {
	if statusAllowed(resp.StatusCode, allowed) {
		return nil
	}
	return requestError(resp)
}

// CheckCreated validates a creation response (HTTP 201). When ignoreExisting
// is set, a 403 from an already existing target is treated as success.
func CheckCreated(resp *http.Response, ignoreExisting bool) error {
	if resp.StatusCode == http.StatusCreated {
		return nil
	}
	if ignoreExisting && resp.StatusCode == http.StatusForbidden {
		return nil
	}
	return requestError(resp)
}

func statusAllowed(status int, allowed []int) bool {
	if len(allowed) == 0 {
		return status >= 200 && status < 300
	}
	for _, code := range allowed {
		if status == code {
			return true
		}
	}
	return false
}

func requestError(resp *http.Response) error {
	excerpt := make([]byte, maxErrorBodyBytes)
	n, _ := io.ReadAtLeast(resp.Body, excerpt, 1)

	requestURL := ""
	if resp.Request != nil && resp.Request.URL != nil {
		requestURL = resp.Request.URL.String()
	}

	return &RequestError{
		StatusCode: resp.StatusCode,
		URL:        requestURL,
		Body:       string(excerpt[:n]),
	}
}
