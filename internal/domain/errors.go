package domain

import (
	"errors"
	"fmt"
)

// ErrCacheMiss is returned by cache stores when no usable entry exists.
var ErrCacheMiss = errors.New("cache miss")

// ValidationError reports a malformed resolution request.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FetchError is a transport failure while retrieving a document.
type FetchError struct {
	URL        string
	Reason     string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch failure reasons.
const (
	ReasonTimeout      = "timeout"
	ReasonTooLarge     = "too large"
	ReasonStatus       = "unexpected status"
	ReasonTooManyHops  = "too many redirects"
	ReasonRedirectLoop = "redirect loop"
	ReasonTransport    = "transport"
	ReasonDecode       = "decode"
)

// ProbeError is a failure while probing headers of a URL.
type ProbeError struct {
	URL    string
	Method string
	Err    error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// ParseError is malformed upstream content (JSON or HTML).
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// CacheError is a read or write failure against a cache store.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }
