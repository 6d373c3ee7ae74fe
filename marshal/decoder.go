package marshal

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/layout"
	"github.com/wippyai/native-runtime/schema"
)

// Decoder lifts native memory back into host values.
type Decoder struct {
	lc *layout.Calculator
}

func NewDecoder(lc *layout.Calculator) *Decoder {
	return &Decoder{lc: lc}
}

// CString reads a NUL-terminated byte sequence at addr into a Go string.
// Returns "" for a nil pointer.
func CString(addr uintptr) string {
	if addr == 0 {
		return ""
	}
	n := uintptr(0)
	for *(*byte)(unsafe.Pointer(addr + n)) != 0 {
		n++
	}
	if n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(addr)), n))
}

// StructAt copies the struct stored at addr into a fresh StructValue. The
// copy detaches the result from native memory, so it stays valid after the
// callee's storage is reused or freed. Returns nil for a nil pointer.
func (d *Decoder) StructAt(name string, addr uintptr) (*StructValue, error) {
	if addr == 0 {
		return nil, nil
	}
	info, err := d.lc.Struct(name)
	if err != nil {
		return nil, err
	}
	data := make([]byte, info.Size)
	copy(data, unsafe.Slice((*byte)(unsafe.Pointer(addr)), info.Size))
	return structValueFromBytes(name, info, d.lc, data), nil
}

// ScalarAt reads one scalar from an arena slot, for byRef and out readback.
func ScalarAt(p unsafe.Pointer, kind schema.TypeKind) any {
	return readScalar(p, kind)
}

// ArrayBack copies n elements from a native buffer back into the host slice
// the array parameter was marshaled from. The destination must be the same
// slice value; element stores go through the same range-validated coercion
// as the outbound copy.
func ArrayBack(p unsafe.Pointer, elem schema.Type, dst any, n int, path []string) error {
	rv := reflect.ValueOf(dst)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return errors.TypeMismatch(errors.PhaseUnmarshal, path, TypeName(dst), "array("+elem.String()+")")
	}
	if rv.Len() < n {
		n = rv.Len()
	}

	size := scalarSize(elem.Kind)
	base := uintptr(p)
	elemType := rv.Type().Elem()

	for i := 0; i < n; i++ {
		native := readScalar(unsafe.Pointer(base+uintptr(i)*size), elem.Kind)
		nv := reflect.ValueOf(native)
		if !nv.Type().AssignableTo(elemType) {
			if !nv.Type().ConvertibleTo(elemType) {
				return errors.TypeMismatch(errors.PhaseUnmarshal, path, nv.Type().String(), elemType.String())
			}
			nv = nv.Convert(elemType)
		}
		rv.Index(i).Set(nv)
	}
	return nil
}
