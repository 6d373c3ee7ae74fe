package layout

import (
	"testing"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/schema"
)

func typ(k schema.TypeKind) schema.Type { return schema.Type{Kind: k} }

func structRef(name string) schema.Type {
	return schema.Type{Kind: schema.KindStruct, Name: name}
}

func off(v uintptr) *uintptr { return &v }

func TestCalculatePrimitives(t *testing.T) {
	c := NewCalculator(nil)

	tests := []struct {
		name  string
		typ   schema.Type
		size  uintptr
		align uintptr
	}{
		{"bool", typ(schema.KindBool), 1, 1},
		{"int8", typ(schema.KindInt8), 1, 1},
		{"uint8", typ(schema.KindUint8), 1, 1},
		{"int16", typ(schema.KindInt16), 2, 2},
		{"uint16", typ(schema.KindUint16), 2, 2},
		{"int32", typ(schema.KindInt32), 4, 4},
		{"uint32", typ(schema.KindUint32), 4, 4},
		{"float32", typ(schema.KindFloat32), 4, 4},
		{"int64", typ(schema.KindInt64), 8, 8},
		{"uint64", typ(schema.KindUint64), 8, 8},
		{"float64", typ(schema.KindFloat64), 8, 8},
		{"pointer", typ(schema.KindPointer), PointerSize, PointerSize},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			info, err := c.Calculate(tc.typ)
			if err != nil {
				t.Fatalf("calculate: %v", err)
			}
			if info.Size != tc.size {
				t.Errorf("size: got %d, want %d", info.Size, tc.size)
			}
			if info.Align != tc.align {
				t.Errorf("align: got %d, want %d", info.Align, tc.align)
			}
		})
	}
}

func TestSequentialLayout(t *testing.T) {
	t.Run("two_doubles", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"Point": {Name: "Point", Layout: schema.LayoutSequential, Fields: []schema.FieldDef{
				{Name: "x", Type: typ(schema.KindFloat64)},
				{Name: "y", Type: typ(schema.KindFloat64)},
			}},
		})

		info, err := c.Struct("Point")
		if err != nil {
			t.Fatalf("layout: %v", err)
		}
		if info.Size != 16 {
			t.Errorf("size: got %d, want 16", info.Size)
		}
		if info.FieldOffs["x"] != 0 || info.FieldOffs["y"] != 8 {
			t.Errorf("offsets: got %+v, want {0, 8}", info.FieldOffs)
		}
		if info.Align != 8 {
			t.Errorf("align: got %d, want 8", info.Align)
		}
	})

	t.Run("padding_and_tail_rounding", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"S": {Name: "S", Layout: schema.LayoutSequential, Fields: []schema.FieldDef{
				{Name: "a", Type: typ(schema.KindUint8)},
				{Name: "b", Type: typ(schema.KindInt32)},
				{Name: "c", Type: typ(schema.KindUint8)},
			}},
		})

		info, err := c.Struct("S")
		if err != nil {
			t.Fatalf("layout: %v", err)
		}
		if info.FieldOffs["a"] != 0 || info.FieldOffs["b"] != 4 || info.FieldOffs["c"] != 8 {
			t.Errorf("offsets: got %+v", info.FieldOffs)
		}
		if info.Size != 12 {
			t.Errorf("size: got %d, want 12", info.Size)
		}
	})

	t.Run("nested_struct", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"Point": {Name: "Point", Layout: schema.LayoutSequential, Fields: []schema.FieldDef{
				{Name: "x", Type: typ(schema.KindFloat64)},
				{Name: "y", Type: typ(schema.KindFloat64)},
			}},
			"Line": {Name: "Line", Layout: schema.LayoutSequential, Fields: []schema.FieldDef{
				{Name: "tag", Type: typ(schema.KindUint8)},
				{Name: "from", Type: structRef("Point")},
				{Name: "to", Type: structRef("Point")},
			}},
		})

		info, err := c.Struct("Line")
		if err != nil {
			t.Fatalf("layout: %v", err)
		}
		if info.FieldOffs["from"] != 8 {
			t.Errorf("from offset: got %d, want 8", info.FieldOffs["from"])
		}
		if info.FieldOffs["to"] != 24 {
			t.Errorf("to offset: got %d, want 24", info.FieldOffs["to"])
		}
		if info.Size != 40 {
			t.Errorf("size: got %d, want 40", info.Size)
		}
	})
}

func TestExplicitLayout(t *testing.T) {
	t.Run("verbatim_offsets", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"S": {Name: "S", Layout: schema.LayoutExplicit, Fields: []schema.FieldDef{
				{Name: "a", Type: typ(schema.KindInt32), Offset: off(4)},
				{Name: "b", Type: typ(schema.KindInt32), Offset: off(16)},
			}},
		})

		info, err := c.Struct("S")
		if err != nil {
			t.Fatalf("layout: %v", err)
		}
		if info.FieldOffs["a"] != 4 || info.FieldOffs["b"] != 16 {
			t.Errorf("offsets: got %+v", info.FieldOffs)
		}
		if info.Size != 20 {
			t.Errorf("size: got %d, want 20", info.Size)
		}
	})

	t.Run("overlapping_union", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"U": {Name: "U", Layout: schema.LayoutExplicit, Fields: []schema.FieldDef{
				{Name: "i", Type: typ(schema.KindInt64), Offset: off(0)},
				{Name: "f", Type: typ(schema.KindFloat64), Offset: off(0)},
				{Name: "lo", Type: typ(schema.KindInt32), Offset: off(0)},
			}},
		})

		info, err := c.Struct("U")
		if err != nil {
			t.Fatalf("layout: %v", err)
		}
		if info.FieldOffs["i"] != 0 || info.FieldOffs["f"] != 0 || info.FieldOffs["lo"] != 0 {
			t.Errorf("offsets: got %+v, want all 0", info.FieldOffs)
		}
		if info.Size != 8 {
			t.Errorf("size: got %d, want 8", info.Size)
		}
		if info.Align != 8 {
			t.Errorf("align: got %d, want 8", info.Align)
		}
	})
}

func TestLayoutCache(t *testing.T) {
	structs := map[string]*schema.StructDef{
		"Point": {Name: "Point", Layout: schema.LayoutSequential, Fields: []schema.FieldDef{
			{Name: "x", Type: typ(schema.KindFloat64)},
			{Name: "y", Type: typ(schema.KindFloat64)},
		}},
	}
	c := NewCalculator(structs)

	first, err := c.Struct("Point")
	if err != nil {
		t.Fatal(err)
	}

	// Mutating the definition after the first computation must not change
	// the cached result.
	structs["Point"].Fields = structs["Point"].Fields[:1]
	second, err := c.Struct("Point")
	if err != nil {
		t.Fatal(err)
	}
	if second.Size != first.Size {
		t.Errorf("cache miss: got %d, want %d", second.Size, first.Size)
	}
}

func TestLayoutErrors(t *testing.T) {
	t.Run("unresolved", func(t *testing.T) {
		c := NewCalculator(nil)
		_, err := c.Struct("Ghost")
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.IsKind(err, errors.KindTypeResolution) {
			t.Errorf("expected type_resolution, got %v", err)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		c := NewCalculator(map[string]*schema.StructDef{
			"A": {Name: "A", Fields: []schema.FieldDef{{Name: "b", Type: structRef("B")}}},
			"B": {Name: "B", Fields: []schema.FieldDef{{Name: "a", Type: structRef("A")}}},
		})
		_, err := c.Struct("A")
		if err == nil {
			t.Fatal("expected error")
		}
		if !errors.IsKind(err, errors.KindTypeResolution) {
			t.Errorf("expected type_resolution, got %v", err)
		}
	})
}
