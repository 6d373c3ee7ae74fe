package marshal

import (
	"sort"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/layout"
	"github.com/wippyai/native-runtime/schema"
)

// StructValue is a host-side structured value with exact native layout: a
// field-name-to-offset map over a raw byte buffer with typed accessors. It
// is what callers pass into struct-typed parameters and receive back from
// struct-typed returns and out-parameters. The buffer is passed by reference
// into native calls, so callee writes are visible through Get afterwards.
type StructValue struct {
	name string
	info layout.Info
	lc   *layout.Calculator
	data []byte
}

// NewStructValue builds a zeroed value for the named struct and sets the
// given fields. Unknown field names are marshaling errors; omitted fields
// stay zero.
func NewStructValue(name string, info layout.Info, fields map[string]any, lc *layout.Calculator) (*StructValue, error) {
	sv := &StructValue{
		name: name,
		info: info,
		lc:   lc,
		data: make([]byte, info.Size),
	}

	for fieldName, v := range fields {
		if _, ok := info.FieldOffs[fieldName]; !ok {
			return nil, errors.FieldUnknown(errors.PhaseMarshal, []string{name}, fieldName)
		}
		if err := sv.Set(fieldName, v); err != nil {
			return nil, err
		}
	}

	return sv, nil
}

// structValueFromBytes wraps an existing buffer without copying. Used for
// nested-field views and decoded returns.
func structValueFromBytes(name string, info layout.Info, lc *layout.Calculator, data []byte) *StructValue {
	return &StructValue{name: name, info: info, lc: lc, data: data}
}

// Name returns the declared struct name.
func (sv *StructValue) Name() string { return sv.name }

// Size returns the native size in bytes.
func (sv *StructValue) Size() uintptr { return sv.info.Size }

// Bytes returns the backing buffer. Mutating it mutates the value.
func (sv *StructValue) Bytes() []byte { return sv.data }

// Ptr returns the address of the backing buffer for passing by reference.
// The caller must keep the value pinned for as long as native code may
// touch it; Arena.Pin does this for the duration of a call.
func (sv *StructValue) Ptr() unsafe.Pointer {
	return unsafe.Pointer(&sv.data[0])
}

// Fields returns the declared field names in layout declaration order.
func (sv *StructValue) Fields() []string {
	names := make([]string, len(sv.info.Fields))
	for i, f := range sv.info.Fields {
		names[i] = f.Name
	}
	return names
}

func (sv *StructValue) fieldLayout(field string) (layout.Field, bool) {
	for _, f := range sv.info.Fields {
		if f.Name == field {
			return f, true
		}
	}
	return layout.Field{}, false
}

// Get reads a field. Scalar fields return their natural Go type; nested
// struct fields return a *StructValue view sharing this value's buffer.
func (sv *StructValue) Get(field string) (any, error) {
	fl, ok := sv.fieldLayout(field)
	if !ok {
		return nil, errors.FieldUnknown(errors.PhaseUnmarshal, []string{sv.name}, field)
	}

	if fl.Type.Kind == schema.KindStruct {
		if sv.lc == nil {
			return nil, errors.New(errors.PhaseUnmarshal, errors.KindMarshaling).
				Path(sv.name, field).
				Detail("no layout calculator for nested struct %s", fl.Type.Name).
				Build()
		}
		info, err := sv.lc.Struct(fl.Type.Name)
		if err != nil {
			return nil, err
		}
		return structValueFromBytes(fl.Type.Name, info, sv.lc, sv.data[fl.Offset:fl.Offset+fl.Size]), nil
	}
	return readScalar(unsafe.Pointer(&sv.data[fl.Offset]), fl.Type.Kind), nil
}

// Float64 reads a field and converts it to float64; convenient for numeric
// struct results.
func (sv *StructValue) Float64(field string) (float64, error) {
	v, err := sv.Get(field)
	if err != nil {
		return 0, err
	}
	f, ok := AsFloat64(v)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseUnmarshal, []string{sv.name, field}, TypeName(v), "float64")
	}
	return f, nil
}

// Int64 reads a field and converts it to int64.
func (sv *StructValue) Int64(field string) (int64, error) {
	v, err := sv.Get(field)
	if err != nil {
		return 0, err
	}
	i, ok := AsInt64(v)
	if !ok {
		return 0, errors.TypeMismatch(errors.PhaseUnmarshal, []string{sv.name, field}, TypeName(v), "int64")
	}
	return i, nil
}

// Set writes a field with range-validated coercion. Nested struct fields
// accept a *StructValue of the right size or a map of field values.
func (sv *StructValue) Set(field string, v any) error {
	fl, ok := sv.fieldLayout(field)
	if !ok {
		return errors.FieldUnknown(errors.PhaseMarshal, []string{sv.name}, field)
	}

	path := []string{sv.name, field}
	if fl.Type.Kind == schema.KindStruct {
		return sv.setStructField(fl, v, path)
	}

	coerced, err := CoerceScalar(fl.Type.Kind, v, path)
	if err != nil {
		return err
	}
	writeScalar(unsafe.Pointer(&sv.data[fl.Offset]), fl.Type.Kind, coerced)
	return nil
}

func (sv *StructValue) setStructField(fl layout.Field, v any, path []string) error {
	dst := sv.data[fl.Offset : fl.Offset+fl.Size]

	switch nested := v.(type) {
	case *StructValue:
		if uintptr(len(nested.data)) != fl.Size {
			return errors.New(errors.PhaseMarshal, errors.KindMarshaling).
				Path(path...).
				Detail("struct %s (%d bytes) does not fit field of %d bytes",
					nested.name, len(nested.data), fl.Size).
				Build()
		}
		copy(dst, nested.data)
		return nil

	case map[string]any:
		if sv.lc == nil {
			return errors.New(errors.PhaseMarshal, errors.KindMarshaling).
				Path(path...).
				Detail("no layout calculator for nested struct %s", fl.Type.Name).
				Build()
		}
		info, err := sv.lc.Struct(fl.Type.Name)
		if err != nil {
			return err
		}
		inner, err := NewStructValue(fl.Type.Name, info, nested, sv.lc)
		if err != nil {
			return err
		}
		copy(dst, inner.data)
		return nil
	}

	return errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "struct("+fl.Type.Name+")")
}

// AsMap copies all fields into a map, nested structs included, in support of
// hosts that deal in plain dynamic values.
func (sv *StructValue) AsMap() map[string]any {
	m := make(map[string]any, len(sv.info.Fields))
	names := make([]string, 0, len(sv.info.Fields))
	for _, f := range sv.info.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	for _, name := range names {
		v, err := sv.Get(name)
		if err != nil {
			continue
		}
		if nested, ok := v.(*StructValue); ok {
			m[name] = nested.AsMap()
			continue
		}
		m[name] = v
	}
	return m
}
