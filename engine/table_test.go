package engine

import (
	"context"
	"math"
	"testing"

	"github.com/tetratelabs/wazero/api"

	wasmffi "github.com/wippyai/wasm-ffi"
	"github.com/wippyai/wasm-ffi/errors"
	"github.com/wippyai/wasm-ffi/types"
)

// fakeCallable is a scriptable table entry for engine tests.
type fakeCallable struct {
	params  []api.ValueType
	results []api.ValueType
	fn      func(ctx context.Context, params []uint64) ([]uint64, error)
}

func (f *fakeCallable) ParamTypes() []api.ValueType { return f.params }

func (f *fakeCallable) ResultTypes() []api.ValueType { return f.results }

func (f *fakeCallable) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(ctx, params)
}

func newTestTableEngine(t *testing.T) (*TableEngine, *wasmffi.SliceMemory) {
	t.Helper()
	mem := wasmffi.NewSliceMemory(1 << 16)
	env := NewTableEngine(TableConfig{
		Memory: mem,
		Stack:  wasmffi.NewStack(mem.Size(), 1<<14),
	})
	return env, mem
}

func TestCallDynamicSlicesBufferBySignature(t *testing.T) {
	ctx := context.Background()
	env, mem := newTestTableEngine(t)

	var seen []uint64
	fn, err := env.Table().Register(&fakeCallable{
		params:  []api.ValueType{api.ValueTypeI32, api.ValueTypeF64, api.ValueTypeI64},
		results: []api.ValueType{api.ValueTypeI32},
		fn: func(ctx context.Context, params []uint64) ([]uint64, error) {
			seen = append([]uint64(nil), params...)
			return []uint64{77}, nil
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	const values, results = 64, 128
	if err := mem.WriteU32(values, 5); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU64(values+4, math.Float64bits(1.5)); err != nil {
		t.Fatal(err)
	}
	if err := mem.WriteU64(values+12, 0xDEADBEEF00); err != nil {
		t.Fatal(err)
	}

	if err := env.CallDynamic(ctx, fn, values, 20, results, 4); err != nil {
		t.Fatalf("CallDynamic: %v", err)
	}

	want := []uint64{5, math.Float64bits(1.5), 0xDEADBEEF00}
	if len(seen) != len(want) {
		t.Fatalf("callee saw %d params, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("param %d = %#x, want %#x", i, seen[i], want[i])
		}
	}
	got, err := mem.ReadU32(results)
	if err != nil {
		t.Fatal(err)
	}
	if got != 77 {
		t.Fatalf("result = %d, want 77", got)
	}
}

func TestCallDynamicBufferLengthMismatch(t *testing.T) {
	ctx := context.Background()
	env, _ := newTestTableEngine(t)

	fn, err := env.Table().Register(&fakeCallable{
		params: []api.ValueType{api.ValueTypeI32},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	err = env.CallDynamic(ctx, fn, 64, 8, 0, 0)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindSignatureMismatch}) {
		t.Fatalf("short signature err = %v, want signature-mismatch", err)
	}

	err = env.CallDynamic(ctx, fn, 64, 4, 0, 4)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindSignatureMismatch}) {
		t.Fatalf("result length err = %v, want signature-mismatch", err)
	}
}

func TestCallDynamicMissingFunction(t *testing.T) {
	env, _ := newTestTableEngine(t)
	err := env.CallDynamic(context.Background(), 12, 0, 0, 0, 0)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindDispatch}) {
		t.Fatalf("err = %v, want dispatch", err)
	}
}

func TestCallDynamicCalleeFailure(t *testing.T) {
	env, _ := newTestTableEngine(t)
	scripted := errors.Unsupported(errors.PhaseCall, "scripted failure")
	fn, err := env.Table().Register(&fakeCallable{
		fn: func(ctx context.Context, params []uint64) ([]uint64, error) {
			return nil, scripted
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	err = env.CallDynamic(context.Background(), fn, 0, 0, 0, 0)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindDispatch}) {
		t.Fatalf("err = %v, want dispatch", err)
	}
	if !errors.Is(err, scripted) {
		t.Fatalf("err = %v, does not wrap the callee failure", err)
	}
}

func TestInstallTrampolineRejectsBadSignatures(t *testing.T) {
	ctx := context.Background()
	env, _ := newTestTableEngine(t)

	code, err := env.ClosureAlloc(ctx)
	if err != nil {
		t.Fatalf("ClosureAlloc: %v", err)
	}
	backing := func(ctx context.Context, args, results uint32) error { return nil }

	wide := make([]types.ValType, wasmffi.MaxArgs+1)
	err = env.InstallTrampoline(ctx, code, backing, wide, nil)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseInstall, Kind: errors.KindSignatureMismatch}) {
		t.Fatalf("oversized signature err = %v, want signature-mismatch", err)
	}

	err = env.InstallTrampoline(ctx, code, backing, nil, []types.ValType{types.ValI32, types.ValI32})
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseInstall, Kind: errors.KindSignatureMismatch}) {
		t.Fatalf("multi-result err = %v, want signature-mismatch", err)
	}
}

func TestTrampolineRoundTrip(t *testing.T) {
	ctx := context.Background()
	env, mem := newTestTableEngine(t)

	code, err := env.ClosureAlloc(ctx)
	if err != nil {
		t.Fatalf("ClosureAlloc: %v", err)
	}

	mark := env.Stack().Save()

	// The backing sees a flat frame: i32 at +0, f64 at +4.
	backing := func(ctx context.Context, args, results uint32) error {
		x, err := mem.ReadU32(args)
		if err != nil {
			return err
		}
		fb, err := mem.ReadU64(args + 4)
		if err != nil {
			return err
		}
		sum := float64(int32(x)) + math.Float64frombits(fb)
		return mem.WriteU32(results, uint32(int32(sum)))
	}
	sig := []types.ValType{types.ValI32, types.ValF64}
	if err := env.InstallTrampoline(ctx, code, backing, sig, []types.ValType{types.ValI32}); err != nil {
		t.Fatalf("InstallTrampoline: %v", err)
	}

	fn, ok := env.Table().Lookup(code)
	if !ok {
		t.Fatal("trampoline not installed")
	}
	if got := fn.ParamTypes(); len(got) != 2 || got[0] != api.ValueTypeI32 || got[1] != api.ValueTypeF64 {
		t.Fatalf("ParamTypes() = %v", got)
	}
	if got := fn.ResultTypes(); len(got) != 1 || got[0] != api.ValueTypeI32 {
		t.Fatalf("ResultTypes() = %v", got)
	}

	out, err := fn.Call(ctx, uint64(uint32(40)), math.Float64bits(2))
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if len(out) != 1 || uint32(out[0]) != 42 {
		t.Fatalf("Call() = %v, want [42]", out)
	}

	if after := env.Stack().Save(); after != mark {
		t.Fatalf("trampoline leaked scratch stack: %d != %d", after, mark)
	}
}

func TestClosureAllocReportsExhaustion(t *testing.T) {
	ctx := context.Background()
	mem := wasmffi.NewSliceMemory(1 << 16)
	env := NewTableEngine(TableConfig{
		Memory: mem,
		Stack:  wasmffi.NewStack(mem.Size(), 1<<14),
		Table:  NewFuncTableLimit(1),
	})

	if _, err := env.ClosureAlloc(ctx); err != nil {
		t.Fatalf("ClosureAlloc: %v", err)
	}
	_, err := env.ClosureAlloc(ctx)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseClosure, Kind: errors.KindSlotExhausted}) {
		t.Fatalf("err = %v, want slot-exhausted", err)
	}
}

func TestTrampolineParameterCountMismatch(t *testing.T) {
	ctx := context.Background()
	env, _ := newTestTableEngine(t)

	code, err := env.ClosureAlloc(ctx)
	if err != nil {
		t.Fatalf("ClosureAlloc: %v", err)
	}
	backing := func(ctx context.Context, args, results uint32) error { return nil }
	if err := env.InstallTrampoline(ctx, code, backing, []types.ValType{types.ValI32}, nil); err != nil {
		t.Fatalf("InstallTrampoline: %v", err)
	}

	fn, _ := env.Table().Lookup(code)
	_, err = fn.Call(ctx, 1, 2, 3)
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseCall, Kind: errors.KindSignatureMismatch}) {
		t.Fatalf("err = %v, want signature-mismatch", err)
	}
}
