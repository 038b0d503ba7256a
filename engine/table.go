package engine

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// TableEngine executes function pointers through a host-managed indirect
// call table. Each callee's flat buffer is sliced
// according to its declared parameter types; the runtime always knows the
// type of every function pointer, so the buffer needs no embedded tags.
type TableEngine struct {
	mem   wasmffi.Memory
	stack wasmffi.Stack
	table *FuncTable
}

// TableConfig configures a table engine.
type TableConfig struct {
	// Memory is the linear memory values are addressed in. Required.
	Memory wasmffi.Memory

	// Stack is the scratch region for struct copies and flat buffers.
	// Required.
	Stack wasmffi.Stack

	// Table is the indirect call table. A fresh table is created when nil.
	Table *FuncTable
}

// NewTableEngine creates a table-backed execution environment.
func NewTableEngine(cfg TableConfig) *TableEngine {
	table := cfg.Table
	if table == nil {
		table = NewFuncTable()
	}
	return &TableEngine{
		mem:   cfg.Memory,
		stack: cfg.Stack,
		table: table,
	}
}

func (e *TableEngine) ABI() wasmffi.ABI {
	return wasmffi.ABITable
}

func (e *TableEngine) Memory() wasmffi.Memory {
	return e.mem
}

func (e *TableEngine) Stack() wasmffi.Stack {
	return e.stack
}

func (e *TableEngine) Features() Features {
	return FeatureVariadic | FeatureArgCopy
}

// Table exposes the indirect call table so embedders can register guest
// functions as callable pointers.
func (e *TableEngine) Table() *FuncTable {
	return e.table
}

// CallDynamic looks up the function at table index fn, decodes the flat
// value buffer into core wasm parameters per the callee's signature,
// invokes it and writes any direct results back.
func (e *TableEngine) CallDynamic(ctx context.Context, fn, values, valuesLen, results, resultsLen uint32) error {
	callee, ok := e.table.Lookup(fn)
	if !ok {
		return errors.New(errors.PhaseCall, errors.KindDispatch).
			Addr(fn).
			Detail("no function installed at table index").
			Build()
	}
	debugf("call_dynamic fn=%d values=%d len=%d", fn, values, valuesLen)

	params, err := e.readParams(callee.ParamTypes(), values, valuesLen)
	if err != nil {
		return err
	}

	out, err := callee.Call(ctx, params...)
	if err != nil {
		return errors.Dispatch(err, fn)
	}

	return e.writeResults(callee.ResultTypes(), out, results, resultsLen)
}

func (e *TableEngine) readParams(paramTypes []api.ValueType, values, valuesLen uint32) ([]uint64, error) {
	params := make([]uint64, len(paramTypes))
	offset := values
	for i, pt := range paramTypes {
		switch wazeroTypeSize(pt) {
		case 4:
			v, err := e.mem.ReadU32(offset)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "read value buffer")
			}
			params[i] = uint64(v)
			offset += 4
		default:
			v, err := e.mem.ReadU64(offset)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "read value buffer")
			}
			params[i] = v
			offset += 8
		}
	}
	if offset-values != valuesLen {
		return nil, errors.SignatureMismatch(errors.PhaseCall,
			fmt.Sprintf("value buffer holds %d bytes, signature consumes %d", valuesLen, offset-values))
	}
	return params, nil
}

func (e *TableEngine) writeResults(resultTypes []api.ValueType, out []uint64, results, resultsLen uint32) error {
	var total uint32
	for _, rt := range resultTypes {
		total += wazeroTypeSize(rt)
	}
	if total != resultsLen {
		return errors.SignatureMismatch(errors.PhaseCall,
			fmt.Sprintf("result buffer holds %d bytes, signature produces %d", resultsLen, total))
	}

	offset := results
	for i, rt := range resultTypes {
		switch wazeroTypeSize(rt) {
		case 4:
			if err := e.mem.WriteU32(offset, uint32(out[i])); err != nil {
				return errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "write result buffer")
			}
			offset += 4
		default:
			if err := e.mem.WriteU64(offset, out[i]); err != nil {
				return errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "write result buffer")
			}
			offset += 8
		}
	}
	return nil
}

// ClosureAlloc reserves an empty table slot.
func (e *TableEngine) ClosureAlloc(ctx context.Context) (uint32, error) {
	index, err := e.table.Reserve()
	if err != nil {
		return 0, errors.SlotExhausted(err.Error())
	}
	debugf("closure_alloc slot=%d", index)
	return index, nil
}

// ClosureFree releases a slot. Invoking the slot afterwards is a dispatch
// error until a future reservation reinstalls it.
func (e *TableEngine) ClosureFree(ctx context.Context, code uint32) error {
	e.table.Release(code)
	return nil
}

// InstallTrampoline synthesizes a host function with the requested
// primitive signature and installs it at the reserved slot. Invoking the
// slot flattens the call-site values into a frame on the scratch stack and
// dispatches to backing.
func (e *TableEngine) InstallTrampoline(ctx context.Context, code uint32, backing BackingFunc, args, results []types.ValType) error {
	if len(args) > wasmffi.MaxArgs {
		return errors.SignatureMismatch(errors.PhaseInstall,
			fmt.Sprintf("%d trampoline arguments exceed the %d ceiling", len(args), wasmffi.MaxArgs))
	}
	if len(results) > 1 {
		return errors.SignatureMismatch(errors.PhaseInstall, "trampolines return at most one value")
	}

	tr := &trampoline{
		engine:  e,
		backing: backing,
		params:  ToWazeroTypes(args),
		results: ToWazeroTypes(results),
		index:   code,
	}
	debugf("install_trampoline slot=%d sig=%v->%v", code, args, results)
	return e.table.Set(code, tr)
}

// trampoline is a synthesized table entry bridging a primitive-typed call
// site to a backing function operating on flat buffers.
type trampoline struct {
	engine  *TableEngine
	backing BackingFunc
	params  []api.ValueType
	results []api.ValueType
	index   uint32
}

func (t *trampoline) ParamTypes() []api.ValueType { return t.params }

func (t *trampoline) ResultTypes() []api.ValueType { return t.results }

func (t *trampoline) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if len(params) != len(t.params) {
		return nil, errors.SignatureMismatch(errors.PhaseCall,
			fmt.Sprintf("trampoline expects %d parameters, got %d", len(t.params), len(params)))
	}

	mem := t.engine.mem
	stack := t.engine.stack
	mark := stack.Save()
	defer stack.Restore(mark)

	var frameLen uint32
	for _, pt := range t.params {
		frameLen += wazeroTypeSize(pt)
	}
	frame := stack.Alloc(frameLen, 8)

	offset := frame
	for i, pt := range t.params {
		switch wazeroTypeSize(pt) {
		case 4:
			if err := mem.WriteU32(offset, uint32(params[i])); err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "stage trampoline frame")
			}
			offset += 4
		default:
			if err := mem.WriteU64(offset, params[i]); err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "stage trampoline frame")
			}
			offset += 8
		}
	}

	// A direct result is 4 or 8 bytes; one 8-byte cell covers both.
	var resAddr uint32
	if len(t.results) > 0 {
		resAddr = stack.Alloc(8, 8)
	}

	debugf("call_closure slot=%d frame=%d", t.index, frame)
	if err := t.backing(ctx, frame, resAddr); err != nil {
		return nil, err
	}

	out := make([]uint64, len(t.results))
	for i, rt := range t.results {
		switch wazeroTypeSize(rt) {
		case 4:
			v, err := mem.ReadU32(resAddr)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "read trampoline result")
			}
			out[i] = uint64(v)
		default:
			v, err := mem.ReadU64(resAddr)
			if err != nil {
				return nil, errors.Wrap(errors.PhaseCall, errors.KindOutOfBounds, err, "read trampoline result")
			}
			out[i] = v
		}
	}
	return out, nil
}

