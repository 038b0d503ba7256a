package abi

import (
	"context"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/call"
	"github.com/wippyai/wasm-ffi/engine"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// Record layouts. Every offset is part of the frozen contract with
// descriptor producers and must never change.
const (
	// Type descriptor record.
	TypeRecordSize  = 12
	TypeOffSize     = 0 // u32 size in bytes
	TypeOffAlign    = 4 // u16 alignment
	TypeOffKind     = 6 // u16 type kind
	TypeOffElements = 8 // u32 pointer to null-terminated pointer array

	// Call interface record.
	CIFRecordSize   = 28
	CIFOffABI       = 0  // u32 calling convention
	CIFOffNArgs     = 4  // u32 argument count
	CIFOffArgTypes  = 8  // u32 pointer to argument descriptor array
	CIFOffRType     = 12 // u32 pointer to result descriptor, 0 for void
	CIFOffBytes     = 16 // u32 reserved frame size, unused on wasm32
	CIFOffFlags     = 20 // u32 flags word
	CIFOffNFixed    = 24 // u32 fixed argument count

	// Closure record.
	ClosureRecordSize = 16
	ClosureOffFTramp  = 0  // u32 callable code slot
	ClosureOffCIF     = 4  // u32 pointer to call interface record
	ClosureOffFun     = 8  // u32 guest handler address
	ClosureOffUser    = 12 // u32 opaque user data
)

// Decode guards. Descriptor graphs are guest-controlled; these bound the
// damage a corrupt record can do without changing the semantics of any
// well-formed one.
const (
	maxTypeDepth  = 64
	maxDecodeArgs = 1 << 16
)

// ReadType decodes the type descriptor record at addr into a host
// descriptor tree, following element pointers recursively.
func ReadType(mem wasmffi.Memory, addr uint32) (*types.Type, error) {
	return readType(mem, addr, 0)
}

func readType(mem wasmffi.Memory, addr uint32, depth int) (*types.Type, error) {
	if addr == 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, "null type descriptor pointer")
	}
	if depth > maxTypeDepth {
		return nil, errors.InvalidData(errors.PhaseDecode, "type descriptor graph too deep")
	}

	size, err := mem.ReadU32(addr + TypeOffSize)
	if err != nil {
		return nil, readErr(err, addr)
	}
	align, err := mem.ReadU16(addr + TypeOffAlign)
	if err != nil {
		return nil, readErr(err, addr)
	}
	rawKind, err := mem.ReadU16(addr + TypeOffKind)
	if err != nil {
		return nil, readErr(err, addr)
	}
	kind := types.Kind(rawKind)
	if !kind.Valid() {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Addr(addr).
			Detail("unknown type kind %d", rawKind).
			Build()
	}

	t := &types.Type{Size: size, Align: align, Kind: kind}

	elements, err := mem.ReadU32(addr + TypeOffElements)
	if err != nil {
		return nil, readErr(err, addr)
	}
	for cursor := elements; cursor != 0; cursor += 4 {
		ptr, err := mem.ReadU32(cursor)
		if err != nil {
			return nil, readErr(err, cursor)
		}
		if ptr == 0 {
			break
		}
		elem, err := readType(mem, ptr, depth+1)
		if err != nil {
			return nil, err
		}
		t.Elements = append(t.Elements, elem)
	}
	return t, nil
}

// WriteType lays the descriptor tree out in guest memory and returns the
// address of its root record. Element arrays are null terminated.
func WriteType(mem wasmffi.Memory, alloc wasmffi.Allocator, t *types.Type) (uint32, error) {
	addr, err := alloc.Alloc(TypeRecordSize, 4)
	if err != nil {
		return 0, err
	}
	if err := mem.WriteU32(addr+TypeOffSize, t.Size); err != nil {
		return 0, writeErr(err, addr)
	}
	if err := mem.WriteU16(addr+TypeOffAlign, t.Align); err != nil {
		return 0, writeErr(err, addr)
	}
	if err := mem.WriteU16(addr+TypeOffKind, uint16(t.Kind)); err != nil {
		return 0, writeErr(err, addr)
	}

	var elements uint32
	if len(t.Elements) > 0 {
		elements, err = alloc.Alloc(uint32(len(t.Elements)+1)*4, 4)
		if err != nil {
			return 0, err
		}
		cursor := elements
		for _, elem := range t.Elements {
			ptr, err := WriteType(mem, alloc, elem)
			if err != nil {
				return 0, err
			}
			if err := mem.WriteU32(cursor, ptr); err != nil {
				return 0, writeErr(err, cursor)
			}
			cursor += 4
		}
		if err := mem.WriteU32(cursor, 0); err != nil {
			return 0, writeErr(err, cursor)
		}
	}
	if err := mem.WriteU32(addr+TypeOffElements, elements); err != nil {
		return 0, writeErr(err, addr)
	}
	return addr, nil
}

// ReadCIF decodes the call interface record at addr, resolving every
// referenced type descriptor. The returned interface still needs Prepare.
func ReadCIF(mem wasmffi.Memory, addr uint32) (*call.Interface, error) {
	if addr == 0 {
		return nil, errors.InvalidData(errors.PhaseDecode, "null call interface pointer")
	}

	abi, err := mem.ReadU32(addr + CIFOffABI)
	if err != nil {
		return nil, readErr(err, addr)
	}
	nargs, err := mem.ReadU32(addr + CIFOffNArgs)
	if err != nil {
		return nil, readErr(err, addr)
	}
	if nargs > maxDecodeArgs {
		return nil, errors.New(errors.PhaseDecode, errors.KindInvalidData).
			Addr(addr).
			Detail("implausible argument count %d", nargs).
			Build()
	}
	argTypes, err := mem.ReadU32(addr + CIFOffArgTypes)
	if err != nil {
		return nil, readErr(err, addr)
	}
	rtype, err := mem.ReadU32(addr + CIFOffRType)
	if err != nil {
		return nil, readErr(err, addr)
	}
	flags, err := mem.ReadU32(addr + CIFOffFlags)
	if err != nil {
		return nil, readErr(err, addr)
	}
	nfixed, err := mem.ReadU32(addr + CIFOffNFixed)
	if err != nil {
		return nil, readErr(err, addr)
	}

	ci := &call.Interface{
		ABI:        wasmffi.ABI(abi),
		Flags:      flags,
		NFixedArgs: int(nfixed),
	}
	if nargs > 0 {
		ci.Args = make([]*types.Type, nargs)
		for i := uint32(0); i < nargs; i++ {
			ptr, err := mem.ReadU32(argTypes + i*4)
			if err != nil {
				return nil, readErr(err, argTypes+i*4)
			}
			ci.Args[i], err = ReadType(mem, ptr)
			if err != nil {
				return nil, err
			}
		}
	}
	if rtype != 0 {
		ci.Result, err = ReadType(mem, rtype)
		if err != nil {
			return nil, err
		}
	}
	return ci, nil
}

// WriteCIF lays a call interface out in guest memory and returns the
// record's address. Descriptor trees are written fresh; sharing between
// interfaces is not reconstructed.
func WriteCIF(mem wasmffi.Memory, alloc wasmffi.Allocator, ci *call.Interface) (uint32, error) {
	addr, err := alloc.Alloc(CIFRecordSize, 4)
	if err != nil {
		return 0, err
	}

	var argTypes uint32
	if len(ci.Args) > 0 {
		argTypes, err = alloc.Alloc(uint32(len(ci.Args))*4, 4)
		if err != nil {
			return 0, err
		}
		cursor := argTypes
		for _, a := range ci.Args {
			ptr, err := WriteType(mem, alloc, a)
			if err != nil {
				return 0, err
			}
			if err := mem.WriteU32(cursor, ptr); err != nil {
				return 0, writeErr(err, cursor)
			}
			cursor += 4
		}
	}

	var rtype uint32
	if ci.Result != nil {
		rtype, err = WriteType(mem, alloc, ci.Result)
		if err != nil {
			return 0, err
		}
	}

	fields := []struct {
		off uint32
		val uint32
	}{
		{CIFOffABI, uint32(ci.ABI)},
		{CIFOffNArgs, uint32(len(ci.Args))},
		{CIFOffArgTypes, argTypes},
		{CIFOffRType, rtype},
		{CIFOffBytes, 0},
		{CIFOffFlags, ci.Flags},
		{CIFOffNFixed, uint32(ci.NFixedArgs)},
	}
	for _, f := range fields {
		if err := mem.WriteU32(addr+f.off, f.val); err != nil {
			return 0, writeErr(err, addr+f.off)
		}
	}
	return addr, nil
}

// ClosureRecord mirrors the guest closure record.
type ClosureRecord struct {
	FTramp   uint32
	CIF      uint32
	Fun      uint32
	UserData uint32
}

// ReadClosure decodes the closure record at addr.
func ReadClosure(mem wasmffi.Memory, addr uint32) (ClosureRecord, error) {
	var rec ClosureRecord
	fields := []struct {
		off uint32
		dst *uint32
	}{
		{ClosureOffFTramp, &rec.FTramp},
		{ClosureOffCIF, &rec.CIF},
		{ClosureOffFun, &rec.Fun},
		{ClosureOffUser, &rec.UserData},
	}
	for _, f := range fields {
		v, err := mem.ReadU32(addr + f.off)
		if err != nil {
			return ClosureRecord{}, readErr(err, addr+f.off)
		}
		*f.dst = v
	}
	return rec, nil
}

// WriteClosure encodes the closure record at addr.
func WriteClosure(mem wasmffi.Memory, addr uint32, rec ClosureRecord) error {
	fields := []struct {
		off uint32
		val uint32
	}{
		{ClosureOffFTramp, rec.FTramp},
		{ClosureOffCIF, rec.CIF},
		{ClosureOffFun, rec.Fun},
		{ClosureOffUser, rec.UserData},
	}
	for _, f := range fields {
		if err := mem.WriteU32(addr+f.off, f.val); err != nil {
			return writeErr(err, addr+f.off)
		}
	}
	return nil
}

// AllocClosure places a closure record in guest memory and reserves a
// callable slot for it, storing the slot in the record's trampoline field.
// size must cover at least the record itself; producers may over-allocate
// for their own trailing data.
func AllocClosure(ctx context.Context, env engine.Environment, alloc wasmffi.Allocator, size uint32) (ptr, code uint32, err error) {
	if size < ClosureRecordSize {
		return 0, 0, errors.InvalidData(errors.PhaseClosure, "closure allocation smaller than the record")
	}
	ptr, err = alloc.Alloc(size, 4)
	if err != nil {
		return 0, 0, err
	}
	code, err = env.ClosureAlloc(ctx)
	if err != nil {
		alloc.Free(ptr, size, 4)
		return 0, 0, err
	}
	if err := env.Memory().WriteU32(ptr+ClosureOffFTramp, code); err != nil {
		alloc.Free(ptr, size, 4)
		return 0, 0, writeErr(err, ptr)
	}
	return ptr, code, nil
}

// FreeClosure releases the callable slot recorded at ptr and returns the
// record's memory. size must match the AllocClosure size.
func FreeClosure(ctx context.Context, env engine.Environment, alloc wasmffi.Allocator, ptr, size uint32) error {
	code, err := env.Memory().ReadU32(ptr + ClosureOffFTramp)
	if err != nil {
		return readErr(err, ptr)
	}
	if err := env.ClosureFree(ctx, code); err != nil {
		return err
	}
	alloc.Free(ptr, size, 4)
	return nil
}

func readErr(err error, addr uint32) error {
	return errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
		Addr(addr).
		Cause(err).
		Detail("read guest record").
		Build()
}

func writeErr(err error, addr uint32) error {
	return errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
		Addr(addr).
		Cause(err).
		Detail("write guest record").
		Build()
}
