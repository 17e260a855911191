package common

import (
	"context"
	"errors"
	"net/http"
)

// Kind classifies an error into one of the outcomes a caller can react to.
type Kind string

const (
	KindNone            Kind = ""
	KindUserNotFound    Kind = "UserNotFound"
	KindAuthFailure     Kind = "AuthFailure"
	KindTransportError  Kind = "TransportError"
	KindCacheCorruption Kind = "CacheCorruption"
)

// Sentinel errors. Wrap them with fmt.Errorf("...: %w", ErrX) so KindOf can
// recover the classification.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrAuthFailure     = errors.New("authentication failed or rate limited")
	ErrTransport       = errors.New("transport error")
	ErrCacheCorruption = errors.New("cache entry corrupted")
	ErrInvalidInput    = errors.New("invalid input")
)

// KindOf maps err onto a Kind. Anything unrecognised is a TransportError, so
// raw transport failures never reach a caller unclassified.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	switch {
	case errors.Is(err, ErrUserNotFound):
		return KindUserNotFound
	case errors.Is(err, ErrAuthFailure):
		return KindAuthFailure
	case errors.Is(err, ErrCacheCorruption):
		return KindCacheCorruption
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return KindForStatus(httpErr.StatusCode)
	}
	return KindTransportError
}

// KindForStatus classifies a non-2xx upstream status code.
func KindForStatus(status int) Kind {
	switch status {
	case http.StatusNotFound:
		return KindUserNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthFailure
	default:
		return KindTransportError
	}
}

// IsRetryable reports whether err is safe to retry immediately.
// Auth failures never are; a cancelled context isn't either.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	return KindOf(err) == KindTransportError
}
