// Package upstream wraps outbound HTTP calls with explicit timeouts and a
// typed error that separates timeouts from other failures.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies an upstream failure.
type Kind string

const (
	// KindTimeout means the request exceeded its deadline.
	KindTimeout Kind = "timeout"
	// KindNetwork covers connection and transport failures.
	KindNetwork Kind = "network"
	// KindStatus means the upstream answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindDecode means the response body could not be decoded.
	KindDecode Kind = "decode"
)

// ErrNotConfigured is returned when required upstream credentials are missing.
var ErrNotConfigured = errors.New("upstream credentials not configured")

// ErrBodyTooLarge is wrapped by a KindDecode error when a response exceeds the
// client's body limit.
var ErrBodyTooLarge = errors.New("response body too large")

// Error is a failed call to an external collaborator.
type Error struct {
	Kind    Kind
	Source  string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("%s: request timed out", e.Source)
	case KindStatus:
		if e.Message != "" {
			return fmt.Sprintf("%s: status %d: %s", e.Source, e.Status, e.Message)
		}
		return fmt.Sprintf("%s: status %d", e.Source, e.Status)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Source, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Kind == KindTimeout
}

// KindOf returns the kind of an upstream error, or "" for other errors.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return ""
}

// classify turns a transport error into an *Error. Caller cancellation is
// returned untouched so it is never mistaken for an upstream failure.
func classify(ctx context.Context, source string, err error) error {
	// Catalog and feed URLs carry credentials.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = RedactURL(urlErr.URL)
	}
	if errors.Is(err, context.Canceled) && ctx.Err() == context.Canceled {
		return err
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Source: source, Err: err}
	}
	return &Error{Kind: KindNetwork, Source: source, Err: err}
}

// RedactURL trims a feed URL down to scheme and host for logging, since
// calendar export URLs embed private tokens.
func RedactURL(u string) string {
	const redacted = "/...(redacted)"

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "ics://...(redacted)"
	}

	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	return u[:j] + redacted
}
