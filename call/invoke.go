package call

import (
	"context"
	"fmt"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/engine"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// Invoke performs a forward call of the function pointer fn under the
// prepared interface ci. Each entry of avalue is the linear-memory address
// of one argument value; rvalue is the address the result is written to
// and is never touched when the result is void.
//
// Marshalled state lives on the environment's scratch stack and is
// released before Invoke returns. Memory faults while staging surface as
// errors; a failure reported by the execution primitive itself cannot be
// unwound and panics with a dispatch error.
func Invoke(ctx context.Context, env engine.Environment, ci *Interface, fn uint32, rvalue uint32, avalue []uint32) error {
	if !ci.prepared {
		return errors.BadState(errors.PhaseCall, "interface has not been prepared")
	}
	if len(avalue) != len(ci.Args) {
		return errors.SignatureMismatch(errors.PhaseCall,
			fmt.Sprintf("interface declares %d arguments, call site provides %d", len(ci.Args), len(avalue)))
	}

	mem := env.Memory()
	stack := env.Stack()
	copyStructs := env.Features().Has(engine.FeatureArgCopy)

	rk := ci.ResultKind()
	indirect := types.Indirect(rk)

	// Variadic with an empty tail degenerates to a plain fixed call.
	nFixed := len(ci.Args)
	variadic := ci.Variadic() && ci.NFixedArgs < len(ci.Args)
	if variadic {
		nFixed = ci.NFixedArgs
	}

	total := uint32(0)
	if indirect {
		total += 4
	}
	for i := 0; i < nFixed; i++ {
		total += types.SlotSize(ci.Args[i].Kind)
	}
	if variadic {
		total += 4 // tail pointer
	}

	mark := stack.Save()
	defer stack.Restore(mark)

	frame := stack.Alloc(total, 8)
	offset := frame

	if indirect {
		if err := mem.WriteU32(offset, rvalue); err != nil {
			return stageErr(err)
		}
		offset += 4
	}

	for i := 0; i < nFixed; i++ {
		next, err := placeValue(mem, stack, ci.Args[i], avalue[i], offset, copyStructs)
		if err != nil {
			return err
		}
		offset = next
	}

	if variadic {
		tail, err := stageVariadicTail(mem, stack, ci.Args[nFixed:], avalue[nFixed:])
		if err != nil {
			return err
		}
		if err := mem.WriteU32(offset, tail); err != nil {
			return stageErr(err)
		}
	}

	// Indirect and void results travel outside the result buffer.
	var results, resultsLen uint32
	if !indirect && rk != types.KindVoid {
		results = rvalue
		resultsLen = types.SlotSize(rk)
	}

	if err := env.CallDynamic(ctx, fn, frame, total, results, resultsLen); err != nil {
		panic(errors.Dispatch(err, fn))
	}
	return nil
}

// placeValue copies the argument at src into the flat buffer slot at dst
// and returns the next slot address. Sub-word integers widen to a full
// slot with their signedness; structs contribute an address, copied to the
// scratch stack first when the environment requires it.
func placeValue(mem wasmffi.Memory, stack wasmffi.Stack, t *types.Type, src, dst uint32, copyStructs bool) (uint32, error) {
	switch t.Kind {
	case types.KindVoid:
		// Zero-size structs normalize to void and occupy no slot.
		return dst, nil

	case types.KindUInt8:
		v, err := mem.ReadU8(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(dst, uint32(v)); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	case types.KindSInt8:
		v, err := mem.ReadU8(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(dst, uint32(int32(int8(v)))); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	case types.KindUInt16:
		v, err := mem.ReadU16(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(dst, uint32(v)); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	case types.KindSInt16:
		v, err := mem.ReadU16(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(dst, uint32(int32(int16(v)))); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	case types.KindInt, types.KindUInt32, types.KindSInt32,
		types.KindPointer, types.KindFloat:
		v, err := mem.ReadU32(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(dst, v); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	case types.KindUInt64, types.KindSInt64, types.KindDouble:
		v, err := mem.ReadU64(src)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU64(dst, v); err != nil {
			return 0, stageErr(err)
		}
		return dst + 8, nil

	case types.KindLongDouble:
		b, err := mem.Read(src, 16)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.Write(dst, b); err != nil {
			return 0, stageErr(err)
		}
		return dst + 16, nil

	case types.KindStruct:
		addr := src
		if copyStructs {
			addr = stack.Alloc(t.Size, uint32(t.Align))
			b, err := mem.Read(src, t.Size)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.Write(addr, b); err != nil {
				return 0, stageErr(err)
			}
		}
		if err := mem.WriteU32(dst, addr); err != nil {
			return 0, stageErr(err)
		}
		return dst + 4, nil

	default:
		panic(errors.BadTypedef(errors.PhaseCall, t.Kind.String(),
			"type cannot be marshalled in a forward call"))
	}
}

// stageVariadicTail copies the trailing arguments onto the scratch stack
// in the layout va_arg expects and returns the address of the lowest cell.
// Arguments are staged in reverse so they end up ascending in memory; the
// tail keeps native sizes rather than widened slots, and struct cells hold
// the address of a stack copy filled in after the scalar pass.
func stageVariadicTail(mem wasmffi.Memory, stack wasmffi.Stack, args []*types.Type, avalue []uint32) (uint32, error) {
	type structSpill struct {
		cell uint32
		src  uint32
		t    *types.Type
	}
	var spills []structSpill

	var tail uint32
	for i := len(args) - 1; i >= 0; i-- {
		t := args[i]
		src := avalue[i]
		switch t.Kind {
		case types.KindVoid:
			// No cell; the tail walk skips void arguments too.

		case types.KindUInt8, types.KindSInt8:
			cell := stack.Alloc(1, 1)
			v, err := mem.ReadU8(src)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.WriteU8(cell, v); err != nil {
				return 0, stageErr(err)
			}
			tail = cell

		case types.KindUInt16, types.KindSInt16:
			cell := stack.Alloc(2, 2)
			v, err := mem.ReadU16(src)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.WriteU16(cell, v); err != nil {
				return 0, stageErr(err)
			}
			tail = cell

		case types.KindInt, types.KindUInt32, types.KindSInt32,
			types.KindPointer, types.KindFloat:
			cell := stack.Alloc(4, 4)
			v, err := mem.ReadU32(src)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.WriteU32(cell, v); err != nil {
				return 0, stageErr(err)
			}
			tail = cell

		case types.KindUInt64, types.KindSInt64, types.KindDouble:
			cell := stack.Alloc(8, 8)
			v, err := mem.ReadU64(src)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.WriteU64(cell, v); err != nil {
				return 0, stageErr(err)
			}
			tail = cell

		case types.KindLongDouble:
			cell := stack.Alloc(16, 8)
			b, err := mem.Read(src, 16)
			if err != nil {
				return 0, stageErr(err)
			}
			if err := mem.Write(cell, b); err != nil {
				return 0, stageErr(err)
			}
			tail = cell

		case types.KindStruct:
			cell := stack.Alloc(4, 4)
			spills = append(spills, structSpill{cell: cell, src: src, t: t})
			tail = cell

		default:
			panic(errors.BadTypedef(errors.PhaseCall, t.Kind.String(),
				"type cannot be marshalled in a variadic tail"))
		}
	}

	// Struct copies land below the tail so the cell walk stays contiguous.
	for _, s := range spills {
		addr := stack.Alloc(s.t.Size, uint32(s.t.Align))
		b, err := mem.Read(s.src, s.t.Size)
		if err != nil {
			return 0, stageErr(err)
		}
		if err := mem.Write(addr, b); err != nil {
			return 0, stageErr(err)
		}
		if err := mem.WriteU32(s.cell, addr); err != nil {
			return 0, stageErr(err)
		}
	}
	return tail, nil
}

func stageErr(err error) error {
	return errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "stage call frame")
}
