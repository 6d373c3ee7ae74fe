package runtime

import (
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"
)

func mathlibBinary() string {
	switch goruntime.GOOS {
	case "darwin":
		return "libmathlib.dylib"
	case "windows":
		return "mathlib.dll"
	default:
		return "libmathlib.so"
	}
}

func mathlib(t *testing.T) *Library {
	t.Helper()
	binary := filepath.Join("testdata", "mathlib", mathlibBinary())
	if _, err := os.Stat(binary); err != nil {
		t.Skipf("fixture not built, see testdata/mathlib/README.md: %v", err)
	}

	reg := NewRegistry(Config{SearchPaths: []string{"testdata"}})
	t.Cleanup(func() { reg.Close() })

	lib, err := reg.Load("mathlib")
	if err != nil {
		t.Fatalf("Load mathlib: %v", err)
	}
	return lib
}

func TestMathlibScalars(t *testing.T) {
	lib := mathlib(t)

	tests := []struct {
		name   string
		export string
		args   []any
		want   any
	}{
		{"add", "add", []any{2, 3}, int32(5)},
		{"subtract", "subtract", []any{10, 4}, int32(6)},
		{"multiply", "multiplyDouble", []any{3.5, 2.0}, 7.0},
		{"divide", "divideDouble", []any{10.0, 2.5}, 4.0},
		{"divide by zero", "divideDouble", []any{1.0, 0.0}, 0.0},
		{"string length", "stringLength", []any{"hello"}, int32(5)},
		{"string length empty", "stringLength", []any{""}, int32(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := lib.Call(tt.export, tt.args...)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
		})
	}
}

func TestMathlibStringReturn(t *testing.T) {
	lib := mathlib(t)

	got, err := lib.Call("getVersion")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != "mathlib 1.0.0" {
		t.Errorf("version = %q", got)
	}
}

func TestMathlibReverseString(t *testing.T) {
	// the argument buffer is call-scoped; the call just has to survive
	lib := mathlib(t)
	if _, err := lib.Call("reverseString", "palindrome"); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestMathlibStructs(t *testing.T) {
	lib := mathlib(t)

	origin, err := lib.NewStruct("Point", map[string]any{"x": 0.0, "y": 0.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	target, err := lib.NewStruct("Point", map[string]any{"x": 3.0, "y": 4.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	d, err := lib.Call("distance", origin, target)
	if err != nil {
		t.Fatalf("Call distance: %v", err)
	}
	if d.(float64) != 5.0 {
		t.Errorf("distance = %v, want 5", d)
	}

	// maps are accepted in place of StructValue
	d, err = lib.Call("distance", map[string]any{"x": 0.0, "y": 0.0}, map[string]any{"x": 6.0, "y": 8.0})
	if err != nil {
		t.Fatalf("Call distance with maps: %v", err)
	}
	if d.(float64) != 10.0 {
		t.Errorf("distance = %v, want 10", d)
	}
}

func TestMathlibTranslatePoint(t *testing.T) {
	lib := mathlib(t)

	p, err := lib.NewStruct("Point", map[string]any{"x": 1.0, "y": 2.0})
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}

	if _, err := lib.Call("translatePoint", p, 10.0, 20.0); err != nil {
		t.Fatalf("Call: %v", err)
	}

	x, _ := p.Float64("x")
	y, _ := p.Float64("y")
	if x != 11.0 || y != 22.0 {
		t.Errorf("point = (%g, %g), want (11, 22)", x, y)
	}
}

func TestMathlibCallback(t *testing.T) {
	lib := mathlib(t)

	mul := func(a, b int32) int32 { return a * b }
	got, err := lib.Call("applyOperation", 6, 7, mul)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if got != int32(42) {
		t.Errorf("applyOperation = %v, want 42", got)
	}
}

func TestMathlibArrays(t *testing.T) {
	lib := mathlib(t)

	fibs := []int32{1, 1, 2, 3, 5, 8, 13, 21}
	got, err := lib.Call("sumArray", fibs, int32(len(fibs)))
	if err != nil {
		t.Fatalf("Call sumArray: %v", err)
	}
	if got != int32(54) {
		t.Errorf("sumArray = %v, want 54", got)
	}

	values := []int32{1, 2, 3}
	if _, err := lib.Call("doubleArray", values, int32(len(values))); err != nil {
		t.Fatalf("Call doubleArray: %v", err)
	}
	want := []int32{2, 4, 6}
	for i := range want {
		if values[i] != want[i] {
			t.Fatalf("values = %v, want %v", values, want)
		}
	}
}

func TestMathlibNewStructUnknownField(t *testing.T) {
	lib := mathlib(t)

	if _, err := lib.NewStruct("Point", map[string]any{"z": 1.0}); err == nil {
		t.Error("unknown field accepted")
	}
	if _, err := lib.NewStruct("Vector", nil); err == nil {
		t.Error("unknown struct accepted")
	}
}
