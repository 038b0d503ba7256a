package engine

import (
	"context"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/types"
)

// Features describes optional capabilities of an execution environment.
type Features uint32

const (
	// FeatureVariadic marks environments whose dynamic-call primitive can
	// carry a variadic tail. Without it, variadic preparation fails with a
	// bad-ABI status.
	FeatureVariadic Features = 1 << iota

	// FeatureComplex marks environments whose preparation step may
	// normalize complex descriptors into float-pair structs instead of
	// rejecting them.
	FeatureComplex

	// FeatureArgCopy marks environments that require composite arguments
	// to be copied onto the scratch stack before the call, rather than
	// passing the address of the caller's storage.
	FeatureArgCopy
)

// Has reports whether every feature in mask is present.
func (f Features) Has(mask Features) bool {
	return f&mask == mask
}

// BackingFunc is the fixed backing function behind an installed trampoline.
// It receives the guest address of the flat argument frame and of the
// result buffer.
type BackingFunc func(ctx context.Context, args, results uint32) error

// Environment is the execution backend contract consumed by the call and
// closure packages.
type Environment interface {
	// ABI identifies the calling-convention variant this environment
	// implements; preparation rejects interfaces tagged for another one.
	ABI() wasmffi.ABI

	// Memory is the linear memory all value addresses refer to.
	Memory() wasmffi.Memory

	// Stack is the scratch region for struct copies, varargs tails and
	// flat buffers. Strict LIFO: save on entry, restore on every exit.
	Stack() wasmffi.Stack

	// Features reports the environment's optional capabilities.
	Features() Features

	// CallDynamic invokes the function pointer fn with the flat value
	// buffer at values. The callee's results are written to results;
	// resultsLen is zero when the result returns by argument. Failure is
	// fatal to the forward call.
	CallDynamic(ctx context.Context, fn, values, valuesLen, results, resultsLen uint32) error

	// ClosureAlloc reserves a callable slot and returns its index. The
	// slot is not callable until a trampoline is installed.
	ClosureAlloc(ctx context.Context) (uint32, error)

	// ClosureFree releases a slot reserved by ClosureAlloc for reuse.
	ClosureFree(ctx context.Context, code uint32) error

	// InstallTrampoline binds backing to the reserved slot under the given
	// primitive signature. A rejected signature leaves the slot
	// non-callable.
	InstallTrampoline(ctx context.Context, code uint32, backing BackingFunc, args, results []types.ValType) error
}
