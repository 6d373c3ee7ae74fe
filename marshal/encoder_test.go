package marshal

import (
	"math"
	"testing"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/schema"
)

func TestEncoderString(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)

	p, err := e.String(a, "hello", nil)
	if err != nil {
		t.Fatalf("String: %v", err)
	}
	if got := CString(uintptr(p)); got != "hello" {
		t.Errorf("round trip = %q, want %q", got, "hello")
	}

	p, err = e.String(a, "", nil)
	if err != nil {
		t.Fatalf("String empty: %v", err)
	}
	if got := CString(uintptr(p)); got != "" {
		t.Errorf("empty round trip = %q", got)
	}
}

func TestCStringNil(t *testing.T) {
	if got := CString(0); got != "" {
		t.Errorf("CString(0) = %q, want empty", got)
	}
}

func TestEncoderScalarSlotRoundTrip(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)

	tests := []struct {
		name string
		kind schema.TypeKind
		in   any
		want any
	}{
		{"int32 min", schema.KindInt32, int64(math.MinInt32), int32(math.MinInt32)},
		{"int32 max", schema.KindInt32, int64(math.MaxInt32), int32(math.MaxInt32)},
		{"int64 min", schema.KindInt64, int64(math.MinInt64), int64(math.MinInt64)},
		{"int64 max", schema.KindInt64, int64(math.MaxInt64), int64(math.MaxInt64)},
		{"uint64 max", schema.KindUint64, uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"float64", schema.KindFloat64, 2.75, 2.75},
		{"float64 max", schema.KindFloat64, math.MaxFloat64, math.MaxFloat64},
		{"float64 smallest", schema.KindFloat64, math.SmallestNonzeroFloat64, math.SmallestNonzeroFloat64},
		{"float32", schema.KindFloat32, 1.25, float32(1.25)},
		{"bool", schema.KindBool, true, true},
		{"uint8", schema.KindUint8, 255, uint8(255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.ScalarSlot(a, tt.kind, tt.in, nil)
			if err != nil {
				t.Fatalf("ScalarSlot: %v", err)
			}
			if got := ScalarAt(p, tt.kind); got != tt.want {
				t.Errorf("read back %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestEncoderArray(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)
	elem := schema.Type{Kind: schema.KindInt32}

	p, n, err := e.Array(a, elem, []int32{1, 2, 3, 5, 8}, nil)
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	if n != 5 {
		t.Errorf("n = %d, want 5", n)
	}

	base := uintptr(p)
	want := []int32{1, 2, 3, 5, 8}
	for i, w := range want {
		got := *(*int32)(unsafe.Pointer(base + uintptr(i)*4))
		if got != w {
			t.Errorf("elem[%d] = %d, want %d", i, got, w)
		}
	}
}

func TestEncoderArrayFromAnySlice(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)
	elem := schema.Type{Kind: schema.KindFloat64}

	p, n, err := e.Array(a, elem, []any{1.5, 2, int32(3)}, nil)
	if err != nil {
		t.Fatalf("Array: %v", err)
	}
	if n != 3 {
		t.Fatalf("n = %d, want 3", n)
	}
	base := uintptr(p)
	want := []float64{1.5, 2, 3}
	for i, w := range want {
		if got := *(*float64)(unsafe.Pointer(base + uintptr(i)*8)); got != w {
			t.Errorf("elem[%d] = %g, want %g", i, got, w)
		}
	}
}

func TestEncoderArrayErrors(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)

	if _, _, err := e.Array(a, schema.Type{Kind: schema.KindInt32}, 42, nil); !errors.IsKind(err, errors.KindMarshaling) {
		t.Errorf("non-slice = %v, want marshaling", err)
	}
	if _, _, err := e.Array(a, schema.Type{Kind: schema.KindInt32}, []any{"x"}, nil); !errors.IsKind(err, errors.KindMarshaling) {
		t.Errorf("bad element = %v, want marshaling", err)
	}
}

func TestArrayBack(t *testing.T) {
	a := NewArena()
	defer a.Release()
	e := NewEncoder(nil)
	elem := schema.Type{Kind: schema.KindInt32}

	src := []int32{1, 2, 3}
	p, n, err := e.Array(a, elem, src, nil)
	if err != nil {
		t.Fatalf("Array: %v", err)
	}

	// native side doubles each element
	base := uintptr(p)
	for i := 0; i < n; i++ {
		slot := (*int32)(unsafe.Pointer(base + uintptr(i)*4))
		*slot *= 2
	}

	if err := ArrayBack(p, elem, src, n, nil); err != nil {
		t.Fatalf("ArrayBack: %v", err)
	}
	want := []int32{2, 4, 6}
	for i := range want {
		if src[i] != want[i] {
			t.Errorf("src[%d] = %d, want %d", i, src[i], want[i])
		}
	}
}

func TestEncoderStruct(t *testing.T) {
	lc := pointCalculator(t)
	a := NewArena()
	defer a.Release()
	e := NewEncoder(lc)
	d := NewDecoder(lc)

	sv, err := e.Struct(a, "Point", map[string]any{"x": 3.0, "y": 4.0}, nil)
	if err != nil {
		t.Fatalf("Struct: %v", err)
	}

	back, err := d.StructAt("Point", uintptr(sv.Ptr()))
	if err != nil {
		t.Fatalf("StructAt: %v", err)
	}
	if x, _ := back.Float64("x"); x != 3.0 {
		t.Errorf("x = %g, want 3", x)
	}

	// decoded copies are detached from the original buffer
	if err := sv.Set("x", 99.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if x, _ := back.Float64("x"); x != 3.0 {
		t.Errorf("detached x = %g, want 3", x)
	}
}

func TestEncoderStructMissingField(t *testing.T) {
	lc := pointCalculator(t)
	a := NewArena()
	defer a.Release()
	e := NewEncoder(lc)

	_, err := e.Struct(a, "Point", map[string]any{"x": 1.0}, nil)
	if !errors.IsKind(err, errors.KindMarshaling) {
		t.Errorf("missing field = %v, want marshaling", err)
	}
}

func TestEncoderStructNameMismatch(t *testing.T) {
	lc := pointCalculator(t)
	a := NewArena()
	defer a.Release()
	e := NewEncoder(lc)

	info, _ := lc.Struct("Point")
	sv, _ := NewStructValue("Point", info, nil, lc)
	if _, err := e.Struct(a, "Segment", sv, nil); !errors.IsKind(err, errors.KindMarshaling) {
		t.Errorf("mismatch = %v, want marshaling", err)
	}
}

func TestDecoderStructAtNil(t *testing.T) {
	lc := pointCalculator(t)
	d := NewDecoder(lc)
	sv, err := d.StructAt("Point", 0)
	if err != nil {
		t.Fatalf("StructAt: %v", err)
	}
	if sv != nil {
		t.Errorf("nil pointer decoded to %v", sv)
	}
}
