package types

import (
	"reflect"
	"testing"
)

func TestNormalizeIdempotent(t *testing.T) {
	tests := []struct {
		name     string
		build    func() *Type
		inResult bool
	}{
		{"scalar", SInt32, false},
		{"pointer", Pointer, false},
		{"complex double", func() *Type { return ComplexOf(Double()) }, false},
		{"longdouble arg", LongDouble, false},
		{"longdouble result", LongDouble, true},
		{"struct pair", func() *Type { return StructOf(SInt32(), Double()) }, false},
		{"single field", func() *Type { return StructOf(Float()) }, false},
		{"nested single", func() *Type { return StructOf(StructOf(SInt64())) }, false},
		{"empty struct", func() *Type { return StructOf() }, false},
		{"single longdouble result", func() *Type { return StructOf(LongDouble()) }, true},
		{"large single field", func() *Type {
			inner := StructOf(SInt64(), SInt64(), SInt64())
			return StructOf(inner)
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			once := tt.build()
			k1 := Normalize(once, tt.inResult)

			twice := once.Clone()
			k2 := Normalize(twice, tt.inResult)

			if k1 != k2 {
				t.Errorf("kind changed on second pass: %s -> %s", k1, k2)
			}
			if !reflect.DeepEqual(once, twice) {
				t.Errorf("tree changed on second pass:\n first: %+v\nsecond: %+v", once, twice)
			}
		})
	}
}

func TestNormalizeComplex(t *testing.T) {
	tests := []struct {
		name       string
		underlying *Type
		wantSize   uint32
		wantAlign  uint16
	}{
		{"complex float", Float(), 8, 4},
		{"complex double", Double(), 16, 8},
		{"complex longdouble", LongDouble(), 32, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ComplexOf(tt.underlying)
			k := Normalize(c, false)

			if k != KindStruct {
				t.Fatalf("kind = %s, want struct", k)
			}
			if c.Size != tt.wantSize || c.Align != tt.wantAlign {
				t.Errorf("size/align = %d/%d, want %d/%d", c.Size, c.Align, tt.wantSize, tt.wantAlign)
			}
			if len(c.Elements) != 2 {
				t.Fatalf("elements = %d, want 2", len(c.Elements))
			}
			for i, e := range c.Elements {
				if e.Kind != tt.underlying.Kind {
					t.Errorf("element %d kind = %s, want %s", i, e.Kind, tt.underlying.Kind)
				}
			}
		})
	}
}

func TestNormalizeComplexUnsupportedUnderlying(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for complex of int")
		}
	}()
	Normalize(ComplexOf(SInt32()), false)
}

func TestNormalizeLongDoubleResult(t *testing.T) {
	ld := LongDouble()
	k := Normalize(ld, true)

	if k != KindStruct {
		t.Fatalf("kind = %s, want struct", k)
	}
	if ld.Size != 16 || ld.Align != 16 {
		t.Errorf("size/align = %d/%d, want 16/16", ld.Size, ld.Align)
	}
	if len(ld.Elements) != 2 || ld.Elements[0].Kind != KindSInt64 || ld.Elements[1].Kind != KindSInt64 {
		t.Errorf("elements = %+v, want two sint64", ld.Elements)
	}
	if !Indirect(k) {
		t.Error("normalized longdouble result must be indirect")
	}
}

func TestNormalizeLongDoubleArgUntouched(t *testing.T) {
	ld := LongDouble()
	if k := Normalize(ld, false); k != KindLongDouble {
		t.Fatalf("kind = %s, want longdouble", k)
	}
	if ld.Size != 16 {
		t.Errorf("size = %d, want 16", ld.Size)
	}
}

func TestNormalizeStructCollapse(t *testing.T) {
	tests := []struct {
		name string
		in   *Type
		want Kind
	}{
		{"single int field", StructOf(SInt32()), KindSInt32},
		{"single double field", StructOf(Double()), KindDouble},
		{"nested single", StructOf(StructOf(StructOf(Float()))), KindFloat},
		{"void padding ignored", StructOf(StructOf(), UInt64()), KindUInt64},
		{"two fields stay struct", StructOf(SInt32(), SInt32()), KindStruct},
		{"sixteen byte single field", StructOf(StructOf(SInt64(), SInt64())), KindStruct},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if k := Normalize(tt.in, false); k != tt.want {
				t.Errorf("kind = %s, want %s", k, tt.want)
			}
		})
	}
}

func TestNormalizeStructCollapseMatchesField(t *testing.T) {
	// Collapsing a small single-field struct must agree with normalizing
	// the field alone.
	fields := []*Type{SInt8(), UInt16(), SInt32(), UInt64(), Float(), Double(), Pointer()}
	for _, f := range fields {
		alone := f.Clone()
		wrapped := StructOf(f.Clone())
		if got, want := Normalize(wrapped, false), Normalize(alone, false); got != want {
			t.Errorf("struct{%s}: kind = %s, want %s", f.Kind, got, want)
		}
	}
}

func TestNormalizeLargeSingleFieldCarveOut(t *testing.T) {
	// A struct whose sole field is itself larger than 16 bytes must keep
	// its struct kind so it stays indirectly passed.
	inner := StructOf(SInt64(), SInt64(), SInt64()) // 24 bytes
	outer := StructOf(inner)

	if k := Normalize(outer, false); k != KindStruct {
		t.Fatalf("kind = %s, want struct", k)
	}
	if !Indirect(KindStruct) {
		t.Error("large single-field struct must stay indirect")
	}
}

func TestNormalizeZeroSizeStruct(t *testing.T) {
	// Intentional contract quirk: zero-size structs vanish entirely, even
	// though some callers would prefer a materialized empty aggregate.
	empty := StructOf()
	if k := Normalize(empty, false); k != KindVoid {
		t.Errorf("kind = %s, want void", k)
	}

	allVoid := StructOf(StructOf(), StructOf())
	if k := Normalize(allVoid, false); k != KindVoid {
		t.Errorf("all-void struct kind = %s, want void", k)
	}
}

func TestNormalizeNil(t *testing.T) {
	if k := Normalize(nil, true); k != KindVoid {
		t.Errorf("kind = %s, want void", k)
	}
}

func TestContainsComplex(t *testing.T) {
	if !ContainsComplex(StructOf(SInt32(), ComplexOf(Double()))) {
		t.Error("nested complex not detected")
	}
	if ContainsComplex(StructOf(SInt32(), Double())) {
		t.Error("false positive")
	}
	if ContainsComplex(nil) {
		t.Error("nil must not contain complex")
	}
}
