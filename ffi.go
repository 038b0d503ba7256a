package wasmffi

// MaxArgs is the ceiling on the number of arguments a call interface may
// carry. Most wasm runtimes support at most 1000 trampoline arguments.
const MaxArgs = 1000

// Status reports the outcome of a preparation step. Callers are expected to
// branch on it; anything past preparation that goes wrong is a contract
// violation and panics instead.
type Status uint32

const (
	StatusOK         Status = 0
	StatusBadTypedef Status = 1
	StatusBadABI     Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusBadTypedef:
		return "bad-typedef"
	case StatusBadABI:
		return "bad-abi"
	default:
		return "unknown-status"
	}
}

// ABI identifies the calling-convention variant a call interface targets.
// The numeric values are part of the binary layout contract and must match
// the descriptor producers.
type ABI uint32

const (
	// ABIDirect is the host-intrinsic path: function pointers are invoked
	// through a call_dynamic style host primitive.
	ABIDirect ABI = 1

	// ABITable is the managed path: function pointers are indices into a
	// host-managed indirect call table.
	ABITable ABI = 2
)

func (a ABI) String() string {
	switch a {
	case ABIDirect:
		return "wasm32-direct"
	case ABITable:
		return "wasm32-table"
	default:
		return "unknown-abi"
	}
}

// Memory represents a 32-bit WASM linear memory.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Allocator allocates memory in WASM linear memory. Closure records are
// placed through it; the allocation policy belongs to the embedder.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

// Stack is a LIFO scratch allocator in linear memory. Forward calls and
// trampoline invocations stage struct copies, varargs tails and flat value
// buffers on it: save a mark on entry, allocate downward, restore the mark
// on every exit path.
type Stack interface {
	Save() uint32
	Restore(mark uint32)
	Alloc(size, align uint32) uint32
}
