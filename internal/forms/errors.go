package forms

import "errors"

var (
	// ErrInvalidEdit wraps every rejected edit: bad field path, type
	// mismatch, or a failed module validation.
	ErrInvalidEdit = errors.New("invalid edit")
	// ErrInvalidScope is returned when a scope key cannot address a record.
	ErrInvalidScope = errors.New("invalid scope")
	// ErrUnknownModule is returned for a module ID with no registration.
	ErrUnknownModule = errors.New("unknown module")
	// ErrClosed is returned by a holder or debouncer after Close.
	ErrClosed = errors.New("closed")
	// ErrStoreUnavailable marks a transient remote store failure. A save
	// that failed with it is likely to succeed on the next edit or flush.
	ErrStoreUnavailable = errors.New("form store unavailable")
)
