package dylib

import (
	"reflect"
	"testing"

	"github.com/wippyai/native-runtime/errors"
)

const libcPath = "libc.so.6"

func TestOpenMissingLibrary(t *testing.T) {
	_, err := Open("/nonexistent/libnothing.so")
	if !errors.IsKind(err, errors.KindLibraryLoad) {
		t.Errorf("err = %v, want library_load", err)
	}
}

func TestLookup(t *testing.T) {
	h, err := Open(libcPath)
	if err != nil {
		t.Skipf("libc unavailable: %v", err)
	}
	defer h.Close()

	addr, err := h.Lookup("abs", "abs")
	if err != nil {
		t.Fatalf("Lookup abs: %v", err)
	}
	if addr == 0 {
		t.Fatal("abs resolved to address 0")
	}

	_, err = h.Lookup("missing", "no_such_symbol_here")
	if !errors.IsKind(err, errors.KindEntryPointNotFound) {
		t.Errorf("missing symbol = %v, want entry_point_not_found", err)
	}
}

func TestBuildFuncAndInvoke(t *testing.T) {
	h, err := Open(libcPath)
	if err != nil {
		t.Skipf("libc unavailable: %v", err)
	}
	defer h.Close()

	addr, err := h.Lookup("abs", "abs")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	f, err := BuildFunc("abs", addr,
		[]reflect.Type{reflect.TypeOf(int32(0))},
		[]reflect.Type{reflect.TypeOf(int32(0))})
	if err != nil {
		t.Fatalf("BuildFunc: %v", err)
	}

	res, err := f.Invoke([]reflect.Value{reflect.ValueOf(int32(-42))})
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := res[0].Interface().(int32); got != 42 {
		t.Errorf("abs(-42) = %d, want 42", got)
	}
}

func TestCloseTwice(t *testing.T) {
	h, err := Open(libcPath)
	if err != nil {
		t.Skipf("libc unavailable: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
