package types

// Type describes a primitive or composite value type. Elements is populated
// only for struct and complex kinds; element descriptors are shared
// references whose lifetime is managed by the caller.
type Type struct {
	Size     uint32
	Align    uint16
	Kind     Kind
	Elements []*Type
}

// Clone returns a deep copy of t. Preparation clones every referenced
// descriptor before normalizing, so caller-owned trees are never mutated.
func (t *Type) Clone() *Type {
	if t == nil {
		return nil
	}
	c := &Type{
		Size:  t.Size,
		Align: t.Align,
		Kind:  t.Kind,
	}
	if t.Elements != nil {
		c.Elements = make([]*Type, len(t.Elements))
		for i, e := range t.Elements {
			c.Elements[i] = e.Clone()
		}
	}
	return c
}

// Primitive descriptor constructors. Each call returns a fresh node so
// normalization of one interface can never alias another.

func Void() *Type       { return &Type{Size: 1, Align: 1, Kind: KindVoid} }
func Int() *Type        { return &Type{Size: 4, Align: 4, Kind: KindInt} }
func Float() *Type      { return &Type{Size: 4, Align: 4, Kind: KindFloat} }
func Double() *Type     { return &Type{Size: 8, Align: 8, Kind: KindDouble} }
func LongDouble() *Type { return &Type{Size: 16, Align: 16, Kind: KindLongDouble} }
func UInt8() *Type      { return &Type{Size: 1, Align: 1, Kind: KindUInt8} }
func SInt8() *Type      { return &Type{Size: 1, Align: 1, Kind: KindSInt8} }
func UInt16() *Type     { return &Type{Size: 2, Align: 2, Kind: KindUInt16} }
func SInt16() *Type     { return &Type{Size: 2, Align: 2, Kind: KindSInt16} }
func UInt32() *Type     { return &Type{Size: 4, Align: 4, Kind: KindUInt32} }
func SInt32() *Type     { return &Type{Size: 4, Align: 4, Kind: KindSInt32} }
func UInt64() *Type     { return &Type{Size: 8, Align: 8, Kind: KindUInt64} }
func SInt64() *Type     { return &Type{Size: 8, Align: 8, Kind: KindSInt64} }
func Pointer() *Type    { return &Type{Size: 4, Align: 4, Kind: KindPointer} }

// StructOf builds a struct descriptor from its ordered fields, computing
// size and alignment with standard C layout rules.
func StructOf(fields ...*Type) *Type {
	t := &Type{Kind: KindStruct, Align: 1, Elements: fields}
	var offset uint32
	for _, f := range fields {
		offset = alignUp(offset, uint32(f.Align))
		offset += f.Size
		if f.Align > t.Align {
			t.Align = f.Align
		}
	}
	t.Size = alignUp(offset, uint32(t.Align))
	return t
}

// ComplexOf builds a complex descriptor over the given floating point
// underlying type.
func ComplexOf(underlying *Type) *Type {
	return &Type{
		Size:     underlying.Size * 2,
		Align:    underlying.Align,
		Kind:     KindComplex,
		Elements: []*Type{underlying},
	}
}

func alignUp(v, align uint32) uint32 {
	if align == 0 {
		return v
	}
	return (v + align - 1) &^ (align - 1)
}
