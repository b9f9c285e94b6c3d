package model

import "errors"

var (
	ErrMissingCredentials  = errors.New("missing OAuth credentials")
	ErrUnsupported         = errors.New("unsupported connection")
	ErrInvalidCallback     = errors.New("invalid callback URL, paste the full redirected URL from the browser")
	ErrNoPendingSession    = errors.New("no pending OAuth session, start connect again")
	ErrStateMismatch       = errors.New("OAuth state mismatch, start connect again")
	ErrMissingCode         = errors.New("authorization code missing from callback URL")
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrProfileFetchFailed  = errors.New("profile lookup failed")

	ErrUnknownPlatform   = errors.New("unknown platform")
	ErrDuplicateOverride = errors.New("platform override given more than once")
	ErrAccountNotFound   = errors.New("account not found")
	ErrPostNotFound      = errors.New("post not found")
	ErrPostBusy          = errors.New("post is already being published")
)

// ErrorCategory groups errors by how a caller should react to them.
type ErrorCategory string

const (
	// CategoryConfiguration errors need the user to fix local setup; never retried.
	CategoryConfiguration ErrorCategory = "configuration"
	// CategoryProtocol errors mean the flow was broken or tampered with; restart from begin.
	CategoryProtocol ErrorCategory = "protocol"
	// CategoryTransient errors may succeed when finish is re-run with the same session.
	CategoryTransient ErrorCategory = "transient"
	CategoryNotFound  ErrorCategory = "not_found"
	CategoryConflict  ErrorCategory = "conflict"
	CategoryInternal  ErrorCategory = "internal"
)

func Classify(err error) ErrorCategory {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingCredentials), errors.Is(err, ErrUnsupported), errors.Is(err, ErrUnknownPlatform),
		errors.Is(err, ErrDuplicateOverride):
		return CategoryConfiguration
	case errors.Is(err, ErrInvalidCallback), errors.Is(err, ErrNoPendingSession),
		errors.Is(err, ErrStateMismatch), errors.Is(err, ErrMissingCode):
		return CategoryProtocol
	case errors.Is(err, ErrTokenExchangeFailed), errors.Is(err, ErrProfileFetchFailed):
		return CategoryTransient
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrPostNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrPostBusy):
		return CategoryConflict
	default:
		return CategoryInternal
	}
}
