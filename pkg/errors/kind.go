package errors

import (
	"context"
	"errors"
)

// Kind is the stable classification of an error, used in failure records and metrics labels.
type Kind string

const (
	KindNone                Kind = ""
	KindNotFound            Kind = "not_found"
	KindDataUnavailable     Kind = "data_unavailable"
	KindInsufficientHistory Kind = "insufficient_history"
	KindSearchUnavailable   Kind = "search_unavailable"
	KindTimeout             Kind = "timeout"
	KindUnavailable         Kind = "unavailable"
	KindSynthesis           Kind = "synthesis"
	KindStorage             Kind = "storage"
	KindDuplicateStep       Kind = "duplicate_step"
	KindInvalidOutput       Kind = "invalid_output"
	KindInvalidInput        Kind = "invalid_input"
	KindCancelled           Kind = "cancelled"
	KindInternal            Kind = "internal"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// order matters: the most specific classification wins
var kindTable = []struct {
	target error
	kind   Kind
}{
	{ErrCancelled, KindCancelled},
	{ErrNotFound, KindNotFound},
	{ErrDuplicateStep, KindDuplicateStep},
	{ErrInsufficientHistory, KindInsufficientHistory},
	{ErrDataUnavailable, KindDataUnavailable},
	{ErrSearchUnavailable, KindSearchUnavailable},
	{ErrSynthesis, KindSynthesis},
	{ErrStorage, KindStorage},
	{ErrInvalidOutput, KindInvalidOutput},
	{ErrInvalidInput, KindInvalidInput},
	{ErrTimeout, KindTimeout},
	{context.DeadlineExceeded, KindTimeout},
	{ErrUnavailable, KindUnavailable},
	{ErrRateLimitExceeded, KindUnavailable},
	{context.Canceled, KindCancelled},
}

// KindOf classifies err. Unknown errors are reported as internal.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for _, entry := range kindTable {
		if errors.Is(err, entry.target) {
			return entry.kind
		}
	}
	return KindInternal
}

// IsTransient reports whether err may succeed on retry.
// Search outages, timeouts and unavailable services are transient; missing data is not.
func IsTransient(err error) bool {
	switch KindOf(err) {
	case KindSearchUnavailable, KindTimeout, KindUnavailable:
		return true
	}
	return false
}
