package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhasePrepare Phase = "prepare" // call-interface preparation
	PhaseCall    Phase = "call"    // forward-call marshalling and dispatch
	PhaseClosure Phase = "closure" // closure lifecycle and backing dispatch
	PhaseDecode  Phase = "decode"  // guest record decoding
	PhaseInstall Phase = "install" // trampoline synthesis and installation
	PhaseMemory  Phase = "memory"  // linear memory access
)

// Kind categorizes the error
type Kind string

const (
	KindBadABI            Kind = "bad_abi"
	KindBadTypedef        Kind = "bad_typedef"
	KindUnsupported       Kind = "unsupported"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindInvalidData       Kind = "invalid_data"
	KindSlotExhausted     Kind = "slot_exhausted"
	KindSignatureMismatch Kind = "signature_mismatch"
	KindBadState          Kind = "bad_state"
	KindDispatch          Kind = "dispatch"
)

// Error is the structured error type used throughout the library
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Type   string // FFI type kind involved, if any
	Addr   uint32 // guest address involved, if any
	Detail string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Type != "" {
		b.WriteString(": type ")
		b.WriteString(e.Type)
	}

	if e.Addr != 0 {
		fmt.Fprintf(&b, " at 0x%x", e.Addr)
	}

	if e.Detail != "" {
		if e.Type != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Is reports whether any error in err's chain matches target. It forwards
// to the standard library so callers need only one errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As finds the first error in err's chain matching target.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Type sets the FFI type kind name
func (b *Builder) Type(t string) *Builder {
	b.err.Type = t
	return b
}

// Addr sets the guest address involved
func (b *Builder) Addr(addr uint32) *Builder {
	b.err.Addr = addr
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// BadTypedef creates a bad type descriptor error
func BadTypedef(phase Phase, typeName, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadTypedef,
		Type:   typeName,
		Detail: detail,
	}
}

// BadABI creates a calling-convention mismatch error
func BadABI(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadABI,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds guest memory error
func OutOfBounds(phase Phase, addr, length uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Addr:   addr,
		Detail: fmt.Sprintf("access of %d bytes out of bounds", length),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// SlotExhausted creates a callable slot exhaustion error
func SlotExhausted(detail string) *Error {
	return &Error{
		Phase:  PhaseClosure,
		Kind:   KindSlotExhausted,
		Detail: detail,
	}
}

// SignatureMismatch creates a flat-buffer/signature disagreement error
func SignatureMismatch(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSignatureMismatch,
		Detail: detail,
	}
}

// BadState creates a lifecycle violation error
func BadState(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindBadState,
		Detail: detail,
	}
}

// Dispatch wraps a failed dynamic dispatch. Callers treat these as fatal.
func Dispatch(cause error, fn uint32) *Error {
	return &Error{
		Phase:  PhaseCall,
		Kind:   KindDispatch,
		Addr:   fn,
		Detail: "dynamic dispatch failed",
		Cause:  cause,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
