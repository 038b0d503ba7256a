package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-ffi/errors"
)

// Callable is one entry of the indirect call table: a typed function the
// engine can invoke with primitive values. Trampolines implement it
// directly; live wazero functions are adapted by WrapFunction, since the
// wazero interfaces are sealed and cannot be implemented here.
type Callable interface {
	ParamTypes() []api.ValueType
	ResultTypes() []api.ValueType
	Call(ctx context.Context, params ...uint64) ([]uint64, error)
}

// guestFunction adapts a wazero function into a table entry.
type guestFunction struct {
	fn api.Function
}

// WrapFunction adapts a live wazero function so it can be installed in a
// FuncTable and invoked as a function pointer.
func WrapFunction(fn api.Function) Callable {
	return &guestFunction{fn: fn}
}

func (g *guestFunction) ParamTypes() []api.ValueType {
	return g.fn.Definition().ParamTypes()
}

func (g *guestFunction) ResultTypes() []api.ValueType {
	return g.fn.Definition().ResultTypes()
}

func (g *guestFunction) Call(ctx context.Context, params ...uint64) ([]uint64, error) {
	return g.fn.Call(ctx, params...)
}

// defaultTableLimit caps a table at the initial size wasm runtimes commonly
// give their indirect function tables.
const defaultTableLimit = 1 << 16

// FuncTable is a host-managed indirect call table. Indices handed out by
// Reserve and Register act as function pointers for the table engine.
// Index zero is the null function pointer and is never allocated.
type FuncTable struct {
	entries  []tableEntry
	freeList []uint32
	limit    uint32
	mu       sync.RWMutex
}

type tableEntry struct {
	fn    Callable
	valid bool
}

// NewFuncTable creates an empty table with the default slot limit.
func NewFuncTable() *FuncTable {
	return NewFuncTableLimit(defaultTableLimit)
}

// NewFuncTableLimit creates an empty table holding at most limit live
// slots.
func NewFuncTableLimit(limit uint32) *FuncTable {
	return &FuncTable{
		entries:  make([]tableEntry, 1, 64), // slot 0 stays null
		freeList: make([]uint32, 0, 16),
		limit:    limit,
	}
}

// Reserve allocates a slot and returns its index. The slot holds no
// function until Set is called; invoking it is a dispatch error. A full
// table reports an error until Release returns a slot.
func (t *FuncTable) Reserve() (uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.freeList) > 0 {
		index := t.freeList[len(t.freeList)-1]
		t.freeList = t.freeList[:len(t.freeList)-1]
		t.entries[index] = tableEntry{valid: true}
		return index, nil
	}

	if uint32(len(t.entries)-1) >= t.limit {
		return 0, fmt.Errorf("function table full: %d slots in use", t.limit)
	}
	t.entries = append(t.entries, tableEntry{valid: true})
	return uint32(len(t.entries) - 1), nil
}

// Release returns a slot to the free list. The index may be handed out
// again by a later Reserve.
func (t *FuncTable) Release(index uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index == 0 || int(index) >= len(t.entries) || !t.entries[index].valid {
		return
	}
	t.entries[index] = tableEntry{}
	t.freeList = append(t.freeList, index)
}

// Set installs fn at a reserved index.
func (t *FuncTable) Set(index uint32, fn Callable) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index == 0 || int(index) >= len(t.entries) || !t.entries[index].valid {
		return errors.InvalidData(errors.PhaseInstall, "set on unreserved table index")
	}
	t.entries[index].fn = fn
	return nil
}

// Register reserves a slot, installs fn and returns the index. This is how
// embedders turn functions into callable pointers; use WrapFunction for
// exported guest functions.
func (t *FuncTable) Register(fn Callable) (uint32, error) {
	index, err := t.Reserve()
	if err != nil {
		return 0, err
	}
	t.mu.Lock()
	t.entries[index].fn = fn
	t.mu.Unlock()
	return index, nil
}

// Lookup returns the function at index, if any is installed.
func (t *FuncTable) Lookup(index uint32) (Callable, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index == 0 || int(index) >= len(t.entries) {
		return nil, false
	}
	e := t.entries[index]
	if !e.valid || e.fn == nil {
		return nil, false
	}
	return e.fn, true
}

// Len returns the number of live slots.
func (t *FuncTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries) - 1 - len(t.freeList)
}
