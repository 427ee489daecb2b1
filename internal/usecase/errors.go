package usecase

import (
	"errors"
	"fmt"
	"net/http"

	"omniai/internal/repository"
)

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorNotFound     ErrorCode = "NOT_FOUND"
	ErrorForbidden    ErrorCode = "FORBIDDEN"
	ErrorRateLimited  ErrorCode = "RATE_LIMITED"
	ErrorUpstream     ErrorCode = "UPSTREAM_ERROR"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

func invalidInput(reason, detail string) *Error {
	return newError(ErrorInvalidInput, reason, errors.New(detail))
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

// upstreamError classifies a provider failure. A 429 from the provider is
// surfaced as RATE_LIMITED so callers can back off.
func upstreamError(reason string, err error) *Error {
	if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
		return newError(ErrorRateLimited, reason+"_rate_limited", err)
	}
	return newError(ErrorUpstream, reason, err)
}

// storeError maps repository.ErrNotFound to NOT_FOUND with notFoundReason and
// everything else to INTERNAL_ERROR with reason.
func storeError(notFoundReason, reason string, err error) *Error {
	if errors.Is(err, repository.ErrNotFound) {
		return newError(ErrorNotFound, notFoundReason, err)
	}
	return newError(ErrorInternal, reason, err)
}
