package types

// Kind is the type id of a descriptor node. The numeric values are part of
// the binary layout contract with descriptor producers and use the libffi
// numbering.
type Kind uint16

const (
	KindVoid       Kind = 0
	KindInt        Kind = 1
	KindFloat      Kind = 2
	KindDouble     Kind = 3
	KindLongDouble Kind = 4
	KindUInt8      Kind = 5
	KindSInt8      Kind = 6
	KindUInt16     Kind = 7
	KindSInt16     Kind = 8
	KindUInt32     Kind = 9
	KindSInt32     Kind = 10
	KindUInt64     Kind = 11
	KindSInt64     Kind = 12
	KindStruct     Kind = 13
	KindPointer    Kind = 14
	KindComplex    Kind = 15

	kindLast = KindComplex
)

// Valid reports whether k is a known type id.
func (k Kind) Valid() bool {
	return k <= kindLast
}

func (k Kind) String() string {
	switch k {
	case KindVoid:
		return "void"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDouble:
		return "double"
	case KindLongDouble:
		return "longdouble"
	case KindUInt8:
		return "uint8"
	case KindSInt8:
		return "sint8"
	case KindUInt16:
		return "uint16"
	case KindSInt16:
		return "sint16"
	case KindUInt32:
		return "uint32"
	case KindSInt32:
		return "sint32"
	case KindUInt64:
		return "uint64"
	case KindSInt64:
		return "sint64"
	case KindStruct:
		return "struct"
	case KindPointer:
		return "pointer"
	case KindComplex:
		return "complex"
	default:
		return "unknown"
	}
}

// ValType is a primitive wasm value type in a dynamic call or trampoline
// signature. The numbering matches the host intrinsic contract.
type ValType uint8

const (
	ValI32 ValType = 0
	ValI64 ValType = 1
	ValF32 ValType = 2
	ValF64 ValType = 3
)

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	default:
		return "unknown"
	}
}

// Size returns the byte width of one value of this type in a flat buffer.
func (v ValType) Size() uint32 {
	switch v {
	case ValI64, ValF64:
		return 8
	default:
		return 4
	}
}
