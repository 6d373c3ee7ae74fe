package marshal

import (
	"math"
	"reflect"
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/schema"
)

// TypeName returns "nil" for nil values, avoiding reflect.TypeOf(nil) panic.
func TypeName(value any) string {
	if value == nil {
		return "nil"
	}
	return reflect.TypeOf(value).String()
}

// AsInt64 widens any integer-valued host value to int64. Floats are accepted
// only when integral. The second result is false for non-numeric values and
// for unsigned values above MaxInt64.
func AsInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case uintptr:
		if uint64(n) > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float32(int64(n)) == n {
			return int64(n), true
		}
		return 0, false
	case float64:
		if float64(int64(n)) == n {
			return int64(n), true
		}
		return 0, false
	}
	return 0, false
}

// AsUint64 widens any non-negative integer-valued host value to uint64.
func AsUint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	case uintptr:
		return uint64(n), true
	}
	if i, ok := AsInt64(v); ok && i >= 0 {
		return uint64(i), true
	}
	return 0, false
}

// AsFloat64 widens any numeric host value to float64.
func AsFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	if i, ok := AsInt64(v); ok {
		return float64(i), true
	}
	if u, ok := AsUint64(v); ok {
		return float64(u), true
	}
	return 0, false
}

// CoerceScalar converts a host value into the Go representation of the
// declared scalar kind, with range validation. The result is suitable for
// writing into native memory or passing as a call argument.
func CoerceScalar(kind schema.TypeKind, v any, path []string) (any, error) {
	switch kind {
	case schema.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "bool")
		}
		return b, nil

	case schema.KindInt8:
		return coerceSigned(v, math.MinInt8, math.MaxInt8, "int8", path, func(i int64) any { return int8(i) })
	case schema.KindInt16:
		return coerceSigned(v, math.MinInt16, math.MaxInt16, "int16", path, func(i int64) any { return int16(i) })
	case schema.KindInt32:
		return coerceSigned(v, math.MinInt32, math.MaxInt32, "int32", path, func(i int64) any { return int32(i) })
	case schema.KindInt64:
		i, ok := AsInt64(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "int64")
		}
		return i, nil

	case schema.KindUint8:
		return coerceUnsigned(v, math.MaxUint8, "uint8", path, func(u uint64) any { return uint8(u) })
	case schema.KindUint16:
		return coerceUnsigned(v, math.MaxUint16, "uint16", path, func(u uint64) any { return uint16(u) })
	case schema.KindUint32:
		return coerceUnsigned(v, math.MaxUint32, "uint32", path, func(u uint64) any { return uint32(u) })
	case schema.KindUint64:
		u, ok := AsUint64(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "uint64")
		}
		return u, nil

	case schema.KindFloat32:
		f, ok := AsFloat64(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "float32")
		}
		if f != 0 && !math.IsInf(f, 0) && !math.IsNaN(f) {
			if abs := math.Abs(f); abs > math.MaxFloat32 {
				return nil, errors.Overflow(path, v, "float32")
			}
		}
		return float32(f), nil

	case schema.KindFloat64:
		f, ok := AsFloat64(v)
		if !ok {
			return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "float64")
		}
		return f, nil

	case schema.KindPointer:
		switch p := v.(type) {
		case nil:
			return uintptr(0), nil
		case uintptr:
			return p, nil
		case unsafe.Pointer:
			return uintptr(p), nil
		}
		return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), "pointer")
	}

	return nil, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
		Path(path...).
		Detail("type %s is not a scalar", kind.String()).
		Build()
}

func coerceSigned(v any, min, max int64, target string, path []string, conv func(int64) any) (any, error) {
	i, ok := AsInt64(v)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), target)
	}
	if i < min || i > max {
		return nil, errors.Overflow(path, v, target)
	}
	return conv(i), nil
}

func coerceUnsigned(v any, max uint64, target string, path []string, conv func(uint64) any) (any, error) {
	u, ok := AsUint64(v)
	if !ok {
		if _, isInt := AsInt64(v); isInt {
			return nil, errors.Overflow(path, v, target)
		}
		return nil, errors.TypeMismatch(errors.PhaseMarshal, path, TypeName(v), target)
	}
	if u > max {
		return nil, errors.Overflow(path, v, target)
	}
	return conv(u), nil
}
