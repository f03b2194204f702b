package cache

import (
	apperrors "github.com/amaumene/gostremiocatalog/internal/errors"
)

// Status tags the outcome of a compute function.
type Status int

const (
	StatusFound Status = iota + 1
	StatusNotFound
	StatusTransient
)

func (s Status) String() string {
	switch s {
	case StatusFound:
		return "found"
	case StatusNotFound:
		return "not-found"
	case StatusTransient:
		return "transient-error"
	default:
		return "unknown"
	}
}

// Result is what a compute function hands back to Wrap. Only Found results
// are written to the cache.
type Result[T any] struct {
	Value  T
	Status Status
	Err    error
	// Cached is true when Value came from the cache rather than compute.
	Cached bool
}

// Found wraps a successfully computed value.
func Found[T any](v T) Result[T] {
	return Result[T]{Value: v, Status: StatusFound}
}

// NotFound reports that the upstream has no such item.
func NotFound[T any]() Result[T] {
	return Result[T]{Status: StatusNotFound}
}

// TransientError reports a failure that must not be cached.
func TransientError[T any](err error) Result[T] {
	return Result[T]{Status: StatusTransient, Err: err}
}

// FromError turns a (value, err) pair into a Result. Not-found errors map to
// NotFound, other errors to TransientError.
func FromError[T any](v T, err error) Result[T] {
	switch {
	case err == nil:
		return Found(v)
	case apperrors.IsNotFound(err):
		return NotFound[T]()
	default:
		return TransientError[T](err)
	}
}

// IsFound reports whether the result carries a value.
func (r Result[T]) IsFound() bool {
	return r.Status == StatusFound
}

// Unwrap returns the value, or ErrNotFound / the transient error.
func (r Result[T]) Unwrap() (T, error) {
	switch r.Status {
	case StatusFound:
		return r.Value, nil
	case StatusTransient:
		if r.Err != nil {
			return r.Value, r.Err
		}
		return r.Value, apperrors.NewUnavailableError("compute failed", nil)
	}
	return r.Value, apperrors.ErrNotFound
}
