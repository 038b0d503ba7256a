package types

import (
	"testing"

	"go.bytecodealliance.org/wit"
)

func TestFromWITPrimitives(t *testing.T) {
	tests := []struct {
		name string
		in   wit.Type
		want Kind
	}{
		{"bool", wit.Bool{}, KindUInt8},
		{"u8", wit.U8{}, KindUInt8},
		{"s8", wit.S8{}, KindSInt8},
		{"u16", wit.U16{}, KindUInt16},
		{"s16", wit.S16{}, KindSInt16},
		{"u32", wit.U32{}, KindUInt32},
		{"s32", wit.S32{}, KindSInt32},
		{"u64", wit.U64{}, KindUInt64},
		{"s64", wit.S64{}, KindSInt64},
		{"f32", wit.F32{}, KindFloat},
		{"f64", wit.F64{}, KindDouble},
		{"char", wit.Char{}, KindUInt32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromWIT(tt.in)
			if err != nil {
				t.Fatalf("FromWIT: %v", err)
			}
			if got.Kind != tt.want {
				t.Errorf("kind = %s, want %s", got.Kind, tt.want)
			}
		})
	}
}

func TestFromWITRecord(t *testing.T) {
	record := &wit.TypeDef{
		Kind: &wit.Record{
			Fields: []wit.Field{
				{Name: "x", Type: wit.S32{}},
				{Name: "y", Type: wit.F64{}},
			},
		},
	}

	got, err := FromWIT(record)
	if err != nil {
		t.Fatalf("FromWIT: %v", err)
	}
	if got.Kind != KindStruct {
		t.Fatalf("kind = %s, want struct", got.Kind)
	}
	if len(got.Elements) != 2 {
		t.Fatalf("elements = %d, want 2", len(got.Elements))
	}
	if got.Elements[0].Kind != KindSInt32 || got.Elements[1].Kind != KindDouble {
		t.Errorf("element kinds = %s,%s", got.Elements[0].Kind, got.Elements[1].Kind)
	}
	if got.Size != 16 || got.Align != 8 {
		t.Errorf("size/align = %d/%d, want 16/8", got.Size, got.Align)
	}
}

func TestFromWITTuple(t *testing.T) {
	tuple := &wit.TypeDef{
		Kind: &wit.Tuple{
			Types: []wit.Type{wit.U32{}, wit.U32{}},
		},
	}

	got, err := FromWIT(tuple)
	if err != nil {
		t.Fatalf("FromWIT: %v", err)
	}
	if got.Kind != KindStruct || got.Size != 8 {
		t.Errorf("kind/size = %s/%d, want struct/8", got.Kind, got.Size)
	}
}

func TestFromWITUnsupported(t *testing.T) {
	unsupported := []wit.Type{
		wit.String{},
		&wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}},
		&wit.TypeDef{Kind: &wit.Enum{}},
	}

	for _, in := range unsupported {
		if _, err := FromWIT(in); err == nil {
			t.Errorf("FromWIT(%T): expected error", in)
		}
	}
}
