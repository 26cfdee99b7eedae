// Package apperr defines the error taxonomy shared by the recommender core
// and its surfaces.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means a title or identifier does not resolve to a known movie.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument covers out-of-range counts, malformed vectors and
	// dimension mismatches.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUpstreamUnavailable means the encoder or an external data source
	// could not be reached.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// NotFound returns an error wrapping ErrNotFound.
func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

// InvalidArgument returns an error wrapping ErrInvalidArgument.
func InvalidArgument(format string, args ...any) error {
	return wrap(ErrInvalidArgument, format, args...)
}

// Unavailable returns an error wrapping ErrUpstreamUnavailable.
func Unavailable(format string, args ...any) error {
	return wrap(ErrUpstreamUnavailable, format, args...)
}

func wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Code returns a stable machine-readable code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidArgument):
		return "INVALID_ARGUMENT"
	case errors.Is(err, ErrUpstreamUnavailable):
		return "UPSTREAM_UNAVAILABLE"
	default:
		return "INTERNAL"
	}
}
