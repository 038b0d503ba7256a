package types

import "github.com/wippyai/wasm-ffi/errors"

// Layout tables for post-normalization kinds. Complex never survives
// normalization, so every function here treats it as a contract violation.

// SlotSize returns the number of bytes one value of kind k occupies in a
// flat value buffer. Sub-word integers are widened: no slot is smaller than
// four bytes.
func SlotSize(k Kind) uint32 {
	switch k {
	case KindVoid:
		return 0
	case KindInt, KindUInt8, KindSInt8, KindUInt16, KindSInt16, KindUInt32, KindSInt32:
		return 4
	case KindFloat:
		return 4
	case KindUInt64, KindSInt64:
		return 8
	case KindDouble:
		return 8
	case KindPointer, KindStruct:
		return 4 // address slot
	case KindLongDouble:
		return 16 // two i64 slots
	case KindComplex:
		panic(errors.BadTypedef(errors.PhaseCall, "complex",
			"complex type should have been normalized during preparation"))
	default:
		panic(errors.BadTypedef(errors.PhaseCall, k.String(), "unknown type in SlotSize"))
	}
}

// Indirect reports whether a result of kind k is returned through a pointer
// passed as an implicit first argument. Only structs qualify; an
// extended-precision result has been rewritten to a struct by normalization
// before anyone asks.
func Indirect(k Kind) bool {
	switch k {
	case KindVoid, KindInt, KindFloat, KindDouble,
		KindUInt8, KindSInt8, KindUInt16, KindSInt16,
		KindUInt32, KindSInt32, KindUInt64, KindSInt64,
		KindPointer:
		return false
	case KindStruct:
		return true
	case KindLongDouble:
		panic(errors.BadTypedef(errors.PhaseCall, "longdouble",
			"longdouble result should have been normalized during preparation"))
	case KindComplex:
		panic(errors.BadTypedef(errors.PhaseCall, "complex",
			"complex type should have been normalized during preparation"))
	default:
		panic(errors.BadTypedef(errors.PhaseCall, k.String(), "unknown type in Indirect"))
	}
}

// SlotCount returns how many primitive call slots a value of kind k
// occupies: zero for void, two for an argument-position extended float, one
// for everything else.
func SlotCount(k Kind) int {
	switch k {
	case KindVoid:
		return 0
	case KindLongDouble:
		return 2
	case KindInt, KindFloat, KindDouble,
		KindUInt8, KindSInt8, KindUInt16, KindSInt16,
		KindUInt32, KindSInt32, KindUInt64, KindSInt64,
		KindPointer, KindStruct:
		return 1
	case KindComplex:
		panic(errors.BadTypedef(errors.PhaseCall, "complex",
			"complex type should have been normalized during preparation"))
	default:
		panic(errors.BadTypedef(errors.PhaseCall, k.String(), "unknown type in SlotCount"))
	}
}

// FlatTypes returns the primitive wasm value types a value of kind k
// contributes to a trampoline signature.
func FlatTypes(k Kind) []ValType {
	switch k {
	case KindVoid:
		return nil
	case KindInt, KindUInt8, KindSInt8, KindUInt16, KindSInt16,
		KindUInt32, KindSInt32, KindPointer, KindStruct:
		return []ValType{ValI32}
	case KindFloat:
		return []ValType{ValF32}
	case KindUInt64, KindSInt64:
		return []ValType{ValI64}
	case KindDouble:
		return []ValType{ValF64}
	case KindLongDouble:
		return []ValType{ValI64, ValI64}
	case KindComplex:
		panic(errors.BadTypedef(errors.PhaseCall, "complex",
			"complex type should have been normalized during preparation"))
	default:
		panic(errors.BadTypedef(errors.PhaseCall, k.String(), "unknown type in FlatTypes"))
	}
}

// ContainsComplex reports whether any node of the descriptor tree is a
// complex type. Engines without complex marshalling reject such interfaces
// at preparation.
func ContainsComplex(t *Type) bool {
	if t == nil {
		return false
	}
	if t.Kind == KindComplex {
		return true
	}
	for _, e := range t.Elements {
		if ContainsComplex(e) {
			return true
		}
	}
	return false
}
