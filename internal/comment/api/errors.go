package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Shahabul87/alam-lms-sub003/internal/comment/model"
)

// Kind classifies a failed request for user-facing handling.
type Kind int

const (
	KindUnknownServer Kind = iota
	KindAuthRequired
	KindForbidden
	KindNotFound
	KindValidation
	KindRateLimited
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindAuthRequired:
		return "auth_required"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation_failed"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network_failure"
	}
	return "unknown_server_error"
}

type Error struct {
	Kind      Kind
	Status    int
	Message   string
	Endpoint  string
	RateLimit *model.RateLimitInfo
	Err       error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Endpoint, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s %s: %d %s", e.Kind, e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Endpoint, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind, true
	}
	return KindUnknownServer, false
}

type errorBody struct {
	Error         string               `json:"error"`
	RateLimitInfo *model.RateLimitInfo `json:"rateLimitInfo,omitempty"`
}

func kindForStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized:
		return KindAuthRequired
	case http.StatusForbidden:
		return KindForbidden
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	case http.StatusTooManyRequests:
		return KindRateLimited
	}
	return KindUnknownServer
}

// transient reports whether retrying the same idempotent request may succeed.
func transient(err error) bool {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Kind {
	case KindNetwork:
		return !errors.Is(err, errContextDone)
	case KindUnknownServer:
		return apiErr.Status >= http.StatusInternalServerError
	}
	return false
}
