package closure

import (
	"context"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/call"
	"github.com/wippyai/wasm-ffi/engine"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// State tracks the closure lifecycle. The zero value is Unallocated; only
// Alloc produces closures in any later state.
type State uint8

const (
	StateUnallocated State = iota
	StateAllocated
	StatePrepared
	StateFreed
)

func (s State) String() string {
	switch s {
	case StateUnallocated:
		return "unallocated"
	case StateAllocated:
		return "allocated"
	case StatePrepared:
		return "prepared"
	case StateFreed:
		return "freed"
	default:
		return "unknown-state"
	}
}

// Handler receives intercepted calls. result is the linear-memory address
// the result value must be written to (undefined for void results); each
// entry of args is the address of one argument value, fixed prefix first.
type Handler func(ctx context.Context, ci *call.Interface, result uint32, args []uint32, userData uint32)

// Closure binds a Handler to a guest-callable code address.
type Closure struct {
	env      engine.Environment
	ci       *call.Interface
	handler  Handler
	userData uint32
	code     uint32
	state    State
}

// Alloc reserves a callable slot in env and returns the closure together
// with the code address guests use to invoke it.
func Alloc(ctx context.Context, env engine.Environment) (*Closure, uint32, error) {
	code, err := env.ClosureAlloc(ctx)
	if err != nil {
		return nil, 0, err
	}
	return &Closure{env: env, code: code, state: StateAllocated}, code, nil
}

// Code returns the guest-callable code address.
func (c *Closure) Code() uint32 {
	return c.code
}

// State returns the current lifecycle state.
func (c *Closure) State() State {
	return c.state
}

// Prepare installs a trampoline for ci at the closure's slot. The
// interface must already be prepared against the same environment; its
// normalized signature determines the trampoline's primitive types.
// Preparing again with a different interface replaces the trampoline.
func Prepare(ctx context.Context, c *Closure, ci *call.Interface, handler Handler, userData uint32) wasmffi.Status {
	if c.state != StateAllocated && c.state != StatePrepared {
		return wasmffi.StatusBadTypedef
	}
	if ci == nil || !ci.Prepared() || handler == nil {
		return wasmffi.StatusBadTypedef
	}

	args, results := trampolineSignature(ci)
	if err := c.env.InstallTrampoline(ctx, c.code, c.makeBacking(ci, handler, userData), args, results); err != nil {
		return wasmffi.StatusBadTypedef
	}

	c.ci = ci
	c.handler = handler
	c.userData = userData
	c.state = StatePrepared
	return wasmffi.StatusOK
}

// Free releases the closure's slot. The code address stops being callable;
// invoking it afterwards is a dispatch error on the caller's side.
func Free(ctx context.Context, c *Closure) error {
	if c.state != StateAllocated && c.state != StatePrepared {
		return errors.BadState(errors.PhaseClosure, "closure is "+c.state.String())
	}
	if err := c.env.ClosureFree(ctx, c.code); err != nil {
		return err
	}
	c.state = StateFreed
	return nil
}

// trampolineSignature flattens a prepared interface into primitive wasm
// types: an i32 result pointer first when the result returns by argument,
// the fixed arguments' flat types, and a trailing i32 tail pointer for
// variadic signatures.
func trampolineSignature(ci *call.Interface) (args, results []types.ValType) {
	rk := ci.ResultKind()
	indirect := types.Indirect(rk)

	if indirect {
		args = append(args, types.ValI32)
	}

	nFixed := len(ci.Args)
	variadic := ci.Variadic() && ci.NFixedArgs < len(ci.Args)
	if variadic {
		nFixed = ci.NFixedArgs
	}
	for i := 0; i < nFixed; i++ {
		args = append(args, types.FlatTypes(ci.Args[i].Kind)...)
	}
	if variadic {
		args = append(args, types.ValI32)
	}

	if !indirect {
		results = types.FlatTypes(rk)
	}
	return args, results
}

// makeBacking builds the flat-buffer entry point the trampoline dispatches
// to. It decodes the frame back into per-argument addresses: scalar slots
// are addressed in place, struct slots hold the argument's address, and
// the variadic tail is walked one cell per trailing argument.
func (c *Closure) makeBacking(ci *call.Interface, handler Handler, userData uint32) engine.BackingFunc {
	return func(ctx context.Context, frame, results uint32) error {
		mem := c.env.Memory()

		rk := ci.ResultKind()
		result := results
		cur := frame

		if types.Indirect(rk) {
			v, err := mem.ReadU32(cur)
			if err != nil {
				return decodeErr(err)
			}
			result = v
			cur += 4
		}

		nFixed := len(ci.Args)
		variadic := ci.Variadic() && ci.NFixedArgs < len(ci.Args)
		if variadic {
			nFixed = ci.NFixedArgs
		}

		argv := make([]uint32, len(ci.Args))
		for i := 0; i < nFixed; i++ {
			t := ci.Args[i]
			switch t.Kind {
			case types.KindVoid:
				// Zero-size argument, no frame slot.
			case types.KindStruct:
				v, err := mem.ReadU32(cur)
				if err != nil {
					return decodeErr(err)
				}
				argv[i] = v
				cur += 4
			default:
				argv[i] = cur
				cur += types.SlotSize(t.Kind)
			}
		}

		if variadic {
			tail, err := mem.ReadU32(cur)
			if err != nil {
				return decodeErr(err)
			}
			for i := nFixed; i < len(ci.Args); i++ {
				switch ci.Args[i].Kind {
				case types.KindVoid:
					// The caller stages no cell for void arguments.
				case types.KindStruct:
					v, err := mem.ReadU32(tail)
					if err != nil {
						return decodeErr(err)
					}
					argv[i] = v
					tail += 4
				default:
					argv[i] = tail
					tail += 4
				}
			}
		}

		handler(ctx, ci, result, argv, userData)
		return nil
	}
}

func decodeErr(err error) error {
	return errors.Wrap(errors.PhaseClosure, errors.KindOutOfBounds, err, "decode trampoline frame")
}
