package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies provider failures so callers can branch on the
// failure class instead of matching message strings. RateLimited covers
// both an upstream 429 and the local confirm-call budget; the two are told
// apart by RemainingCalls, which is only set for the local cap.
type ErrorKind string

const (
	KindAuthFailed    ErrorKind = "auth_failed"
	KindRateLimited   ErrorKind = "rate_limited"
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindBadRequest    ErrorKind = "bad_request"
	KindUpstream      ErrorKind = "upstream_error"
	KindTimeout       ErrorKind = "timeout"
	KindNetwork       ErrorKind = "network_error"
)

type APIError struct {
	Provider       string
	Kind           ErrorKind
	Status         int
	Message        string
	RemainingCalls *int
	Err            error
}

func (e *APIError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: %s (HTTP %d)", e.Provider, e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Actionable reports whether the failure should trigger provider fallback:
// the request itself was rejected and a different provider may succeed.
func (e *APIError) Actionable() bool {
	switch e.Kind {
	case KindAuthFailed, KindBadRequest, KindRateLimited, KindQuotaExceeded:
		return true
	}
	return false
}

// KindOf extracts the error kind, if err is (or wraps) an APIError.
func KindOf(err error) (ErrorKind, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return "", false
}

func isTimeout(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
