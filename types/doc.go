// Package types defines the FFI type descriptor tree, the normalizer that
// reduces it to the kinds the execution environment understands, and the
// layout tables that govern how each kind travels through a flat value
// buffer.
//
// Descriptors use the libffi type-id numbering and carry byte size,
// alignment and, for composites, an ordered element list. Normalization is
// idempotent and always runs on per-interface canonical copies; descriptors
// owned by the caller are never mutated.
package types
