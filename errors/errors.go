// Package errors defines the shared error taxonomy used across the FFAT
// engine and the root file system multiplexer. It follows the same
// "string-constant-as-error-kind" shape this codebase has historically used
// for driver errors, but each kind is chainable via WithMessage/WrapError so
// callers can attach the detail text the specification requires for
// InternalError and IllegalOperation without losing the underlying kind.
package errors

import "fmt"

// Kind identifies one of the error taxonomy's fixed categories. It never
// carries detail text itself; detail lives in the FFATError that wraps it.
type Kind string

const (
	// KindBlockDeviceError indicates a device I/O fault reported by a
	// BlockDevice implementation.
	KindBlockDeviceError Kind = "block device error"
	// KindNotFound indicates a path resolution miss.
	KindNotFound Kind = "not found"
	// KindAccessViolation is reserved for permission enforcement. FFAT
	// itself never emits it; it exists so collaborators layering
	// permissions on top of the multiplexer have a kind to use.
	KindAccessViolation Kind = "access violation"
	// KindInvalidSuperBlock indicates the root sector's magic or shape was
	// wrong at mount time.
	KindInvalidSuperBlock Kind = "invalid superblock"
	// KindInvalidAddress indicates a sector address outside the data
	// region.
	KindInvalidAddress Kind = "invalid address"
	// KindNotEnoughSpace indicates the free list was exhausted.
	KindNotEnoughSpace Kind = "not enough space"
	// KindInternalError indicates an invariant violation, such as a
	// directory chain ending prematurely.
	KindInternalError Kind = "internal error"
	// KindIllegalOperation indicates a semantic misuse: clearing a Data
	// sector, deleting root, creating over an existing entry, using a
	// descriptor after close/detach, and so on.
	KindIllegalOperation Kind = "illegal operation"
)

// FFATError is the error type returned by every exported operation in this
// module. It always carries a Kind and a human-readable message, and may
// wrap a lower-level cause (typically a raw I/O error from the device
// layer).
type FFATError struct {
	kind    Kind
	message string
	cause   error
}

// New creates an error of the given kind with no extra detail.
func New(kind Kind) *FFATError {
	return &FFATError{kind: kind, message: string(kind)}
}

// Error implements the error interface.
func (e *FFATError) Error() string {
	return e.message
}

// Kind reports which of the eight taxonomy categories this error belongs
// to.
func (e *FFATError) Kind() Kind {
	return e.kind
}

// Unwrap lets errors.Is/errors.As see through to a wrapped cause.
func (e *FFATError) Unwrap() error {
	return e.cause
}

// WithMessage returns a new error of the same kind with additional detail
// appended to the message.
func (e *FFATError) WithMessage(message string) *FFATError {
	return &FFATError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, message),
		cause:   e.cause,
	}
}

// WrapError returns a new error of the same kind that wraps err as its
// cause, for propagating a lower-level failure without losing the FFAT-level
// kind.
func (e *FFATError) WrapError(err error) *FFATError {
	return &FFATError{
		kind:    e.kind,
		message: fmt.Sprintf("%s: %s", e.message, err.Error()),
		cause:   err,
	}
}

// Is lets errors.Is(err, ErrNotFound) succeed for any FFATError of the same
// kind, including ones with attached detail text or a wrapped cause.
func (e *FFATError) Is(target error) bool {
	other, ok := target.(*FFATError)
	if !ok {
		return false
	}
	return other.kind == e.kind && other.message == string(other.kind)
}

// Code gives the stable integer mapping a syscall-shim collaborator (out of
// scope for this module) is expected to return to user space: NotFound=-1,
// AccessViolation=-2, IllegalOperation=-3, anything else=-4. It lives here
// because it's part of the shared taxonomy, not because this module does
// any syscall dispatch itself.
func (e *FFATError) Code() int {
	switch e.kind {
	case KindNotFound:
		return -1
	case KindAccessViolation:
		return -2
	case KindIllegalOperation:
		return -3
	default:
		return -4
	}
}

// Sentinel errors, one per kind, for use with errors.Is and as the base of
// WithMessage/WrapError chains.
var (
	ErrBlockDeviceError  = New(KindBlockDeviceError)
	ErrNotFound          = New(KindNotFound)
	ErrAccessViolation   = New(KindAccessViolation)
	ErrInvalidSuperBlock = New(KindInvalidSuperBlock)
	ErrInvalidAddress    = New(KindInvalidAddress)
	ErrNotEnoughSpace    = New(KindNotEnoughSpace)
	ErrInternalError     = New(KindInternalError)
	ErrIllegalOperation  = New(KindIllegalOperation)
)

// Code maps any error to the stable integer code described in FFATError.Code;
// errors that aren't an *FFATError map to -4 ("other"), and a nil error maps
// to 0.
func Code(err error) int {
	if err == nil {
		return 0
	}
	if ffatErr, ok := err.(*FFATError); ok {
		return ffatErr.Code()
	}
	return -4
}
