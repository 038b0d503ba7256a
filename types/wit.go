package types

import (
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wasm-ffi/errors"
)

// FromWIT builds an FFI type descriptor from a WIT type. Only types with a
// direct C-like representation map: primitives, records and tuples.
// Strings, lists, variants and resource handles have no libffi descriptor
// and report an unsupported error.
func FromWIT(t wit.Type) (*Type, error) {
	switch v := t.(type) {
	case wit.Bool, wit.U8:
		return UInt8(), nil
	case wit.S8:
		return SInt8(), nil
	case wit.U16:
		return UInt16(), nil
	case wit.S16:
		return SInt16(), nil
	case wit.U32, wit.Char:
		return UInt32(), nil
	case wit.S32:
		return SInt32(), nil
	case wit.U64:
		return UInt64(), nil
	case wit.S64:
		return SInt64(), nil
	case wit.F32:
		return Float(), nil
	case wit.F64:
		return Double(), nil
	case *wit.TypeDef:
		return fromWITTypeDef(v)
	case nil:
		return Void(), nil
	default:
		return nil, errors.Unsupported(errors.PhasePrepare, "WIT type has no FFI descriptor")
	}
}

func fromWITTypeDef(td *wit.TypeDef) (*Type, error) {
	if td == nil || td.Kind == nil {
		return nil, errors.InvalidData(errors.PhasePrepare, "nil WIT typedef")
	}

	switch kind := td.Kind.(type) {
	case *wit.Record:
		fields := make([]*Type, 0, len(kind.Fields))
		for _, f := range kind.Fields {
			ft, err := FromWIT(f.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, ft)
		}
		return StructOf(fields...), nil

	case *wit.Tuple:
		elems := make([]*Type, 0, len(kind.Types))
		for _, et := range kind.Types {
			ft, err := FromWIT(et)
			if err != nil {
				return nil, err
			}
			elems = append(elems, ft)
		}
		return StructOf(elems...), nil

	default:
		return nil, errors.Unsupported(errors.PhasePrepare, "WIT type has no FFI descriptor")
	}
}
