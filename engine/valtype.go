package engine

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// ToWazeroType maps an FFI value type onto the wazero core value type.
func ToWazeroType(v types.ValType) api.ValueType {
	switch v {
	case types.ValI64:
		return api.ValueTypeI64
	case types.ValF32:
		return api.ValueTypeF32
	case types.ValF64:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32
	}
}

// ToWazeroTypes maps a signature slice.
func ToWazeroTypes(vs []types.ValType) []api.ValueType {
	if len(vs) == 0 {
		return nil
	}
	out := make([]api.ValueType, len(vs))
	for i, v := range vs {
		out[i] = ToWazeroType(v)
	}
	return out
}

// FromWazeroType maps a wazero core value type onto the FFI value type.
// Reference and vector types have no FFI representation.
func FromWazeroType(v api.ValueType) (types.ValType, error) {
	switch v {
	case api.ValueTypeI32:
		return types.ValI32, nil
	case api.ValueTypeI64:
		return types.ValI64, nil
	case api.ValueTypeF32:
		return types.ValF32, nil
	case api.ValueTypeF64:
		return types.ValF64, nil
	default:
		return 0, errors.Unsupported(errors.PhaseCall, "core value type "+api.ValueTypeName(v))
	}
}

// wazeroTypeSize returns the flat-buffer width of a core value type.
func wazeroTypeSize(v api.ValueType) uint32 {
	switch v {
	case api.ValueTypeI64, api.ValueTypeF64:
		return 8
	default:
		return 4
	}
}
