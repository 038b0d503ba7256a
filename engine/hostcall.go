package engine

import (
	"context"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// Intrinsics are the host primitives of the direct execution path,
// typically bound to runtime syscalls by the embedder. Every field must be
// populated; a call through a missing intrinsic reports an unsupported
// error, which forward calls treat as fatal.
type Intrinsics struct {
	// CallDynamic invokes a function pointer with a flat value buffer.
	CallDynamic func(ctx context.Context, fn, values, valuesLen, results, resultsLen uint32) error

	// ClosureAllocate reserves a slot in the runtime's indirect function
	// table.
	ClosureAllocate func(ctx context.Context) (uint32, error)

	// ClosureFree releases a reserved slot.
	ClosureFree func(ctx context.Context, code uint32) error

	// ClosurePrepare asks the runtime to synthesize a trampoline with the
	// given primitive signature at the reserved slot, dispatching to
	// backing.
	ClosurePrepare func(ctx context.Context, code uint32, backing BackingFunc, args, results []types.ValType) error
}

// HostcallEngine delegates the four execution primitives to host
// intrinsics. The runtime knows the signature of every function pointer,
// so no table bookkeeping happens on this side.
type HostcallEngine struct {
	mem   wasmffi.Memory
	stack wasmffi.Stack
	intr  Intrinsics
}

// NewHostcallEngine creates a host-intrinsic execution environment.
func NewHostcallEngine(mem wasmffi.Memory, stack wasmffi.Stack, intr Intrinsics) *HostcallEngine {
	return &HostcallEngine{mem: mem, stack: stack, intr: intr}
}

func (e *HostcallEngine) ABI() wasmffi.ABI {
	return wasmffi.ABIDirect
}

func (e *HostcallEngine) Memory() wasmffi.Memory {
	return e.mem
}

func (e *HostcallEngine) Stack() wasmffi.Stack {
	return e.stack
}

func (e *HostcallEngine) Features() Features {
	return FeatureComplex
}

func (e *HostcallEngine) CallDynamic(ctx context.Context, fn, values, valuesLen, results, resultsLen uint32) error {
	if e.intr.CallDynamic == nil {
		return errors.Unsupported(errors.PhaseCall, "call_dynamic intrinsic not provided")
	}
	debugf("call_dynamic fn=%d values=%d len=%d", fn, values, valuesLen)
	return e.intr.CallDynamic(ctx, fn, values, valuesLen, results, resultsLen)
}

func (e *HostcallEngine) ClosureAlloc(ctx context.Context) (uint32, error) {
	if e.intr.ClosureAllocate == nil {
		return 0, errors.Unsupported(errors.PhaseClosure, "closure_allocate intrinsic not provided")
	}
	return e.intr.ClosureAllocate(ctx)
}

func (e *HostcallEngine) ClosureFree(ctx context.Context, code uint32) error {
	if e.intr.ClosureFree == nil {
		return errors.Unsupported(errors.PhaseClosure, "closure_free intrinsic not provided")
	}
	return e.intr.ClosureFree(ctx, code)
}

func (e *HostcallEngine) InstallTrampoline(ctx context.Context, code uint32, backing BackingFunc, args, results []types.ValType) error {
	if e.intr.ClosurePrepare == nil {
		return errors.Unsupported(errors.PhaseInstall, "closure_prepare intrinsic not provided")
	}
	if len(args) > wasmffi.MaxArgs {
		return errors.SignatureMismatch(errors.PhaseInstall, "trampoline argument count exceeds ceiling")
	}
	debugf("closure_prepare slot=%d sig=%v->%v", code, args, results)
	return e.intr.ClosurePrepare(ctx, code, backing, args, results)
}
