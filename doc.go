// Package wasmffi implements the calling-convention layer of a foreign
// function interface for 32-bit WebAssembly targets.
//
// Given a call interface (CIF) describing a function's argument and result
// types, the library can invoke an arbitrary function pointer with
// dynamically typed arguments (a forward call), and synthesize a native
// callable trampoline (a closure) that decodes primitive-typed calls into a
// generic Go handler.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmffi/          Root package with Memory, Allocator and Stack interfaces
//	├── types/        Type descriptors, the normalizer and the layout tables
//	├── abi/          Fixed-offset codec for CIF/type/closure records living
//	│                 in guest linear memory
//	├── call/         CIF preparation and the forward-call marshaller
//	├── closure/      Closure lifecycle and the generic backing dispatcher
//	├── engine/       Execution backends: a managed function-table engine on
//	│                 wazero and a host-intrinsic engine
//	└── errors/       Structured error types for debugging
//
// # Quick Start
//
// Prepare a call interface and invoke a function pointer:
//
//	ci := &call.Interface{
//	    ABI:    env.ABI(),
//	    Args:   []*types.Type{types.SInt32(), types.Double()},
//	    Result: types.SInt32(),
//	}
//	if st := call.Prepare(env, ci); st != wasmffi.StatusOK {
//	    log.Fatal(st)
//	}
//	if err := call.Invoke(ctx, env, ci, fn, rvalue, []uint32{a0, a1}); err != nil {
//	    log.Fatal(err)
//	}
//
// Build a closure dispatching to a Go handler:
//
//	c, code, _ := closure.Alloc(ctx, env)
//	st := closure.Prepare(ctx, c, ci, handler, userData)
//
// # Value Addressing
//
// Every dynamically typed value (arguments, results, struct bytes, varargs
// tails) lives in a 32-bit linear memory and is addressed by a uint32 offset
// through the Memory interface. The library never converts values into Go
// representations; it moves bytes between caller storage and the flat value
// buffers exchanged with the execution environment.
//
// # Thread Safety
//
// Prepared call interfaces are immutable and safe for concurrent forward
// calls; each call stages its flat buffer and scratch copies in a call-local
// stack frame. Closure slot allocation is serialized by the environment's
// slot table.
package wasmffi
