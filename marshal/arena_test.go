package marshal

import (
	"testing"
	"unsafe"
)

func TestArenaAlloc(t *testing.T) {
	a := NewArena()
	defer a.Release()

	tests := []struct {
		name  string
		size  uintptr
		align uintptr
	}{
		{"byte", 1, 1},
		{"word", 8, 8},
		{"zero size", 0, 1},
		{"wide align", 3, 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := a.Alloc(tt.size, tt.align)
			if err != nil {
				t.Fatalf("Alloc: %v", err)
			}
			if p == nil {
				t.Fatal("nil pointer")
			}
			if uintptr(p)%tt.align != 0 {
				t.Errorf("address %#x not aligned to %d", uintptr(p), tt.align)
			}
		})
	}
}

func TestArenaAllocZeroed(t *testing.T) {
	a := NewArena()
	defer a.Release()

	p, err := a.Alloc(64, 8)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	buf := unsafe.Slice((*byte)(p), 64)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d = %#x, want zero", i, b)
		}
	}
}

func TestArenaReleaseTwice(t *testing.T) {
	a := NewArena()
	if _, err := a.Alloc(16, 8); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	a.Release()
	a.Release()
}

func TestArenaPinExternal(t *testing.T) {
	a := NewArena()
	defer a.Release()

	buf := make([]byte, 8)
	a.Pin(unsafe.Pointer(&buf[0]))
}
