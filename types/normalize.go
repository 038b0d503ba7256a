package types

import "github.com/wippyai/wasm-ffi/errors"

// Normalize rewrites t in place into its canonical reduced form and returns
// the resulting kind. Children are processed before parents. The rules:
//
//   - Complex becomes a two-field struct of its underlying float type.
//   - In result position only, an extended-precision float becomes a
//     two-field struct of 64-bit signed integers (size 16, alignment 16).
//     Argument-position extended floats are left alone and travel as two
//     slots.
//   - A struct of size zero becomes void. So does a struct whose every
//     field reduces to void.
//   - A struct with exactly one non-void field is collapsed to that field's
//     kind, unless the struct's encoded size exceeds 16 bytes. Large
//     single-field structs stay structs so they keep their by-address
//     passing; some descriptor producers report such types with pointer
//     size, and collapsing them here would change the ABI.
//   - A struct with more than one non-void field keeps its kind and is
//     always passed and returned by address.
//
// Normalize is idempotent: a second run over an already-normalized tree is
// a no-op. Only float, double and extended-precision underlying types are
// supported for complex; anything else is a contract violation and panics.
//
// A nil descriptor denotes a void result and normalizes to void.
func Normalize(t *Type, inResult bool) Kind {
	if t == nil {
		return KindVoid
	}

	if t.Kind == KindComplex {
		underlying := t.Elements[0]
		switch underlying.Kind {
		case KindFloat, KindDouble, KindLongDouble:
		default:
			panic(errors.BadTypedef(errors.PhasePrepare, underlying.Kind.String(),
				"only float, double and longdouble complex types are supported"))
		}
		t.Kind = KindStruct
		t.Size = underlying.Size * 2
		t.Align = underlying.Align
		t.Elements = []*Type{underlying.Clone(), underlying.Clone()}
		return KindStruct
	}

	if inResult && t.Kind == KindLongDouble {
		return rewriteLongDoubleResult(t)
	}

	if t.Kind == KindStruct {
		// Zero size structs reduce to void. Known quirk of the descriptor
		// contract: callers relying on such structs being materialized get
		// nothing, and changing that would break existing producers.
		if t.Size == 0 {
			t.Kind = KindVoid
			return KindVoid
		}

		scalar := KindVoid
		nonVoid := 0
		for _, e := range t.Elements {
			ek := Normalize(e, false)
			if ek != KindVoid {
				scalar = ek
				nonVoid++
			}
		}

		if nonVoid > 1 {
			return KindStruct
		}
		if nonVoid == 0 {
			t.Kind = KindVoid
			return KindVoid
		}
		if t.Size > 16 {
			// The single-field unbox carve-out, see above.
			return KindStruct
		}

		t.Kind = scalar
		if inResult && scalar == KindLongDouble {
			return rewriteLongDoubleResult(t)
		}
		return scalar
	}

	return t.Kind
}

// rewriteLongDoubleResult turns an extended-precision result into the pair
// of 64-bit integers it is actually returned as.
func rewriteLongDoubleResult(t *Type) Kind {
	t.Kind = KindStruct
	t.Size = 16
	t.Align = 16
	t.Elements = []*Type{SInt64(), SInt64()}
	return KindStruct
}
