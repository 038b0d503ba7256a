package wasmffi

import (
	"bytes"
	"testing"
)

func TestSliceMemoryRoundTrip(t *testing.T) {
	m := NewSliceMemory(256)

	if err := m.WriteU32(0, 0xAABBCCDD); err != nil {
		t.Fatal(err)
	}
	// Little endian byte order.
	b, err := m.Read(0, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, []byte{0xDD, 0xCC, 0xBB, 0xAA}) {
		t.Fatalf("bytes = %x", b)
	}

	if err := m.WriteU64(8, 0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	v64, err := m.ReadU64(8)
	if err != nil {
		t.Fatal(err)
	}
	if v64 != 0x1122334455667788 {
		t.Fatalf("ReadU64 = %#x", v64)
	}

	if err := m.WriteU16(20, 0xBEEF); err != nil {
		t.Fatal(err)
	}
	v16, err := m.ReadU16(20)
	if err != nil {
		t.Fatal(err)
	}
	if v16 != 0xBEEF {
		t.Fatalf("ReadU16 = %#x", v16)
	}
}

func TestSliceMemoryBounds(t *testing.T) {
	m := NewSliceMemory(16)

	if _, err := m.ReadU32(14); err == nil {
		t.Fatal("ReadU32 across the boundary did not fail")
	}
	if err := m.WriteU64(12, 0); err == nil {
		t.Fatal("WriteU64 across the boundary did not fail")
	}
	if _, err := m.Read(0, 17); err == nil {
		t.Fatal("Read past the end did not fail")
	}
	if err := m.Write(15, []byte{1, 2}); err == nil {
		t.Fatal("Write past the end did not fail")
	}
	// Offset arithmetic must not wrap around.
	if _, err := m.Read(0xFFFFFFFF, 2); err == nil {
		t.Fatal("wrapping offset did not fail")
	}
}
