// Package xerr classifies the error kinds named in the recognition engine's
// error handling design and wraps them with stack traces for FAILURE task
// results.
package xerr

import (
	"errors"
	"fmt"

	"github.com/mdobak/go-xerrors"
)

// Kind identifies one of the five error categories the Orchestrator
// classifies downstream failures into.
type Kind int

const (
	// KindInputDecode means the blob was unreadable or declared a bad rate.
	KindInputDecode Kind = iota
	// KindEmptyFingerprint means extraction produced zero pairs.
	KindEmptyFingerprint
	// KindStoreUnavailable means a transient backend failure.
	KindStoreUnavailable
	// KindTimeout means the task exceeded its wall-clock budget.
	KindTimeout
	// KindMetadataMissing means CatalogLookup returned nothing for a candidate.
	KindMetadataMissing
)

func (k Kind) String() string {
	switch k {
	case KindInputDecode:
		return "input_decode_error"
	case KindEmptyFingerprint:
		return "empty_fingerprint"
	case KindStoreUnavailable:
		return "store_unavailable"
	case KindTimeout:
		return "timeout"
	case KindMetadataMissing:
		return "metadata_missing"
	default:
		return "unknown"
	}
}

// Error is a classified error carrying one of the five kinds.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err as a classified error of the given kind, attaching a stack
// trace via xerrors so it can be surfaced verbatim in a FAILURE result.
func New(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: xerrors.New(err)}
}

// Newf is New with a formatted message.
func Newf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Errorf(format, args...))
}

// As reports whether err is (or wraps) a classified *Error and returns it.
func As(err error) (*Error, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Is reports whether err was classified with the given kind.
func Is(err error, kind Kind) bool {
	ce, ok := As(err)
	return ok && ce.Kind == kind
}
