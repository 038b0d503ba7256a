// Package engine provides the execution environments the FFI layer runs on.
//
// Environment is the contract: four host primitives (dynamic call, slot
// reservation and release, trampoline installation) plus ambient accessors
// for memory, scratch stack and capability flags. Two interchangeable
// backends implement it:
//
//   - TableEngine: function pointers are indices into a host-managed
//     indirect call table. Guest functions enter the table through
//     WrapFunction; trampolines are synthesized entries installed directly.
//   - HostcallEngine: the four primitives are delegated to host intrinsics
//     supplied by the embedder, the shape used when the runtime itself
//     offers call_dynamic/closure_prepare style syscalls.
//
// The type normalizer and marshaller are backend independent; only these
// primitives and the trampoline encoding differ.
package engine
