package marshal

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/layout"
	"github.com/wippyai/native-runtime/schema"
)

// Encoder lowers host values into native memory owned by a per-call arena.
type Encoder struct {
	lc *layout.Calculator
}

func NewEncoder(lc *layout.Calculator) *Encoder {
	return &Encoder{lc: lc}
}

// String copies s into a NUL-terminated arena buffer and returns its
// address. Native code sees a borrowed C string valid until the arena is
// released.
func (e *Encoder) String(a *Arena, s string, path []string) (unsafe.Pointer, error) {
	p, err := a.Alloc(uintptr(len(s))+1, 1)
	if err != nil {
		return nil, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
			Path(path...).Cause(err).Detail("string buffer allocation failed").Build()
	}
	buf := unsafe.Slice((*byte)(p), len(s)+1)
	copy(buf, s)
	buf[len(s)] = 0
	return p, nil
}

// ScalarSlot stores a coerced scalar in a fresh arena slot and returns its
// address, for byRef and out parameters.
func (e *Encoder) ScalarSlot(a *Arena, kind schema.TypeKind, v any, path []string) (unsafe.Pointer, error) {
	coerced, err := CoerceScalar(kind, v, path)
	if err != nil {
		return nil, err
	}
	size := scalarSize(kind)
	p, err := a.Alloc(size, size)
	if err != nil {
		return nil, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
			Path(path...).Cause(err).Detail("scalar slot allocation failed").Build()
	}
	writeScalar(p, kind, coerced)
	return p, nil
}

// Array copies a host slice into a contiguous arena buffer of the declared
// element type and returns its address and element count. Accepts any Go
// slice whose elements coerce to the element kind.
func (e *Encoder) Array(a *Arena, elem schema.Type, v any, path []string) (unsafe.Pointer, int, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, 0, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "array("+elem.String()+")")
	}

	n := rv.Len()
	size := scalarSize(elem.Kind)
	if size == 0 {
		return nil, 0, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
			Path(path...).
			Detail("array element type %s is not a scalar", elem.String()).
			Build()
	}

	total := uintptr(n) * size
	p, err := a.Alloc(total, size)
	if err != nil {
		return nil, 0, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
			Path(path...).Cause(err).Detail("array buffer allocation failed").Build()
	}

	base := uintptr(p)
	for i := 0; i < n; i++ {
		coerced, err := CoerceScalar(elem.Kind, rv.Index(i).Interface(), path)
		if err != nil {
			return nil, 0, err
		}
		writeScalar(unsafe.Pointer(base+uintptr(i)*size), elem.Kind, coerced)
	}
	return p, n, nil
}

// Struct produces the native form of a struct-typed argument. A *StructValue
// of the declared type passes its own buffer by reference, so the callee's
// writes land in the caller's value. A map builds a temporary value that is
// discarded after the call unless the parameter is byRef, in which case the
// binding decodes it back.
func (e *Encoder) Struct(a *Arena, name string, v any, path []string) (*StructValue, error) {
	switch sv := v.(type) {
	case *StructValue:
		if sv.name != name {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, "struct("+sv.name+")", "struct("+name+")")
		}
		a.Pin(sv.Ptr())
		return sv, nil

	case map[string]any:
		info, err := e.lc.Struct(name)
		if err != nil {
			return nil, err
		}
		// arguments must carry every declared field; zero-filling is the
		// explicit constructor's contract, not the call boundary's
		for _, f := range info.Fields {
			if _, ok := sv[f.Name]; !ok {
				return nil, errors.FieldMissing(errors.PhaseMarshal, append(path, name), f.Name)
			}
		}
		built, err := NewStructValue(name, info, sv, e.lc)
		if err != nil {
			return nil, err
		}
		a.Pin(built.Ptr())
		return built, nil
	}

	return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "struct("+name+")")
}
