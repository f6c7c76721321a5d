package jikan

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrUnavailable is returned when the catalog could not be reached, either
	// after the retry budget was spent or because it answered with an error.
	ErrUnavailable = errors.New("catalog temporarily unavailable")
	// ErrClosed is returned for requests made after Close
	ErrClosed = errors.New("jikan client closed")
	// ErrInvalidArgument is returned before any request is made
	ErrInvalidArgument = errors.New("invalid argument")
)

// StatusError is a non-2xx answer from the catalog
type StatusError struct {
	StatusCode int
	URL        string
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("unexpected status code %d from %s: %s", e.StatusCode, e.URL, e.Message)
	}
	return fmt.Sprintf("unexpected status code %d from %s", e.StatusCode, e.URL)
}

type networkError struct {
	err error
}

func (e *networkError) Error() string { return "network error: " + e.err.Error() }

func (e *networkError) Unwrap() error { return e.err }

// IsTransient reports whether err is worth retrying: network failures and
// rate limiting. Every other status fails on the first attempt.
func IsTransient(err error) bool {
	var ne *networkError
	if errors.As(err, &ne) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// IsNotFound reports whether the catalog answered 404
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}
