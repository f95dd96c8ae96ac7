package service

import (
	"context"
	"strings"
)

// LookupStatus classifies the outcome of an external lookup.
type LookupStatus int

const (
	// LookupNotFound means the collaborator answered but had no data.
	LookupNotFound LookupStatus = iota
	// LookupFound means Value holds the answer.
	LookupFound
	// LookupUnavailable means the collaborator could not be reached or
	// answered with an error; Err holds the cause.
	LookupUnavailable
)

func (s LookupStatus) String() string {
	switch s {
	case LookupFound:
		return "found"
	case LookupUnavailable:
		return "unavailable"
	default:
		return "not_found"
	}
}

// LookupResult is the typed outcome of a best-effort external lookup.
type LookupResult[T any] struct {
	Value  T
	Status LookupStatus
	Err    error
}

// Found wraps a successful value.
func Found[T any](v T) LookupResult[T] {
	return LookupResult[T]{Value: v, Status: LookupFound}
}

// NotFound reports a definitive miss.
func NotFound[T any]() LookupResult[T] {
	return LookupResult[T]{Status: LookupNotFound}
}

// Unavailable reports a transient failure.
func Unavailable[T any](err error) LookupResult[T] {
	return LookupResult[T]{Status: LookupUnavailable, Err: err}
}

// IsFound reports whether Value is usable.
func (r LookupResult[T]) IsFound() bool {
	return r.Status == LookupFound
}

// ValueOr returns Value when found, def otherwise.
func (r LookupResult[T]) ValueOr(def T) T {
	if r.IsFound() {
		return r.Value
	}
	return def
}

// TitleLookupFunc looks something up by a single title.
type TitleLookupFunc[T any] func(ctx context.Context, title string) LookupResult[T]

// ResolveByTitle tries primary and then fallback, returning the first Found
// result. Empty titles are skipped, and fallback is skipped when it equals
// primary. With no Found result the last attempted outcome is returned.
func ResolveByTitle[T any](ctx context.Context, primary, fallback string, fn TitleLookupFunc[T]) LookupResult[T] {
	last := NotFound[T]()
	tried := ""
	for _, title := range []string{primary, fallback} {
		title = strings.TrimSpace(title)
		if title == "" || title == tried {
			continue
		}
		if err := ctx.Err(); err != nil {
			return Unavailable[T](err)
		}
		tried = title
		last = fn(ctx, title)
		if last.IsFound() {
			return last
		}
	}
	return last
}
