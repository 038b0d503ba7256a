// Package closure turns host Go handlers into guest-callable function
// pointers.
//
// A closure walks a small lifecycle: Alloc reserves a callable slot and
// yields the code address guests will call, Prepare installs a trampoline
// with the primitive signature derived from a prepared call interface, and
// Free releases the slot. Between Prepare and Free, invoking the code
// address from either side of the boundary lands in the handler with the
// arguments decoded back into linear-memory addresses.
package closure
