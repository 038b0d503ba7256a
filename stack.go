package wasmffi

import "fmt"

// DownwardStack is a Stack over a region of linear memory that grows from a
// high base address toward a lower floor, matching the wasm C stack
// discipline. It only performs pointer arithmetic; the bytes themselves are
// written through Memory by the caller.
type DownwardStack struct {
	base  uint32
	floor uint32
	sp    uint32
}

// NewStack returns a stack whose highest address is base and which may grow
// down by at most size bytes.
func NewStack(base, size uint32) *DownwardStack {
	if size > base {
		size = base
	}
	return &DownwardStack{base: base, floor: base - size, sp: base}
}

func (s *DownwardStack) Save() uint32 {
	return s.sp
}

func (s *DownwardStack) Restore(mark uint32) {
	if mark < s.floor || mark > s.base {
		panic(fmt.Sprintf("stack restore to %d outside region [%d,%d]", mark, s.floor, s.base))
	}
	s.sp = mark
}

// Alloc reserves size bytes aligned to align (a power of two) and returns
// the address of the reservation. Guest descriptors may carry a zero
// alignment, which means unaligned. Exhausting the region is a sizing bug
// in the embedder and panics.
func (s *DownwardStack) Alloc(size, align uint32) uint32 {
	if align == 0 {
		align = 1
	}
	if size > s.sp {
		panic(fmt.Sprintf("scratch stack overflow: %d bytes requested, %d available", size, s.sp-s.floor))
	}
	sp := s.sp - size
	sp &^= align - 1
	if sp < s.floor {
		panic(fmt.Sprintf("scratch stack overflow: %d bytes requested, %d available", size, s.sp-s.floor))
	}
	s.sp = sp
	return sp
}
