// Package errors provides structured error types for the wasm-ffi library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type includes rich context: the offending type id,
// the guest address involved, and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePrepare, errors.KindBadTypedef).
//		Type("complex").
//		Detail("complex argument %d not supported by this engine", i).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.Unsupported(errors.PhaseCall, "complex marshalling")
//	err := errors.OutOfBounds(errors.PhaseDecode, addr, 16)
//
// All errors implement the standard error interface and support
// errors.Is/As; two *Error values match when phase and kind agree.
package errors
