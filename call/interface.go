package call

import (
	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/engine"
	"github.com/wippyai/wasm-ffi/types"
)

// FlagVariadic marks an interface whose argument list carries a variadic
// tail. Part of the binary layout contract.
const FlagVariadic = 1

// Interface describes one function signature. Construct it with the
// declared descriptors, run Prepare (after PrepareVariadic, when the
// signature has a variadic tail) and treat it as immutable afterwards.
type Interface struct {
	// ABI is the calling-convention tag; it must match the environment the
	// interface is prepared against.
	ABI wasmffi.ABI

	// Args are the declared argument descriptors, fixed prefix first.
	Args []*types.Type

	// Result is the declared result descriptor; nil means void.
	Result *types.Type

	// NFixedArgs is the number of non-variadic arguments. Frozen by
	// PrepareVariadic before the general preparation pass runs; set to
	// len(Args) by Prepare otherwise.
	NFixedArgs int

	// Flags is the flags word; only FlagVariadic is defined.
	Flags uint32

	prepared bool
}

// Prepared reports whether Prepare succeeded on this interface.
func (ci *Interface) Prepared() bool {
	return ci.prepared
}

// Variadic reports whether the interface carries a variadic tail.
func (ci *Interface) Variadic() bool {
	return ci.Flags&FlagVariadic != 0
}

// ResultKind returns the normalized result kind, void for a nil result.
func (ci *Interface) ResultKind() types.Kind {
	if ci.Result == nil {
		return types.KindVoid
	}
	return ci.Result.Kind
}

// PrepareVariadic freezes the fixed-argument count of a signature with a
// variadic tail. It must run before Prepare, which would otherwise clobber
// the count. Environments without variadic support report bad-abi.
func PrepareVariadic(env engine.Environment, ci *Interface, nFixed, nTotal int) wasmffi.Status {
	ci.Flags |= FlagVariadic
	ci.NFixedArgs = nFixed

	if nFixed > nTotal || nTotal != len(ci.Args) {
		return wasmffi.StatusBadTypedef
	}
	if !env.Features().Has(engine.FeatureVariadic) {
		return wasmffi.StatusBadABI
	}
	// The tail pointer takes up one extra argument.
	if nFixed+1 > wasmffi.MaxArgs {
		return wasmffi.StatusBadTypedef
	}
	return wasmffi.StatusOK
}

// Prepare validates the interface against the environment and normalizes
// canonical copies of every referenced descriptor. Caller-owned descriptor
// trees are never mutated; two interfaces can share unprepared descriptors
// freely.
func Prepare(env engine.Environment, ci *Interface) wasmffi.Status {
	if ci.ABI != env.ABI() {
		return wasmffi.StatusBadABI
	}

	if !env.Features().Has(engine.FeatureComplex) {
		if types.ContainsComplex(ci.Result) {
			return wasmffi.StatusBadTypedef
		}
		for _, a := range ci.Args {
			if types.ContainsComplex(a) {
				return wasmffi.StatusBadTypedef
			}
		}
	}

	args := make([]*types.Type, len(ci.Args))
	for i, a := range ci.Args {
		args[i] = a.Clone()
		types.Normalize(args[i], false)
	}
	ci.Args = args

	if ci.Result != nil {
		r := ci.Result.Clone()
		types.Normalize(r, true)
		ci.Result = r
	}

	// PrepareVariadic runs first, so only a non-variadic signature gets its
	// fixed count derived here.
	if !ci.Variadic() {
		ci.NFixedArgs = len(ci.Args)
	}
	if len(ci.Args) > wasmffi.MaxArgs {
		return wasmffi.StatusBadTypedef
	}

	ci.prepared = true
	return wasmffi.StatusOK
}
