package marshal

import (
	"unsafe"

	"github.com/wippyai/native-runtime/schema"
)

// scalarSize returns the native size of a scalar kind. Alignment equals size
// for every scalar the grammar allows.
func scalarSize(kind schema.TypeKind) uintptr {
	switch kind {
	case schema.KindBool, schema.KindInt8, schema.KindUint8:
		return 1
	case schema.KindInt16, schema.KindUint16:
		return 2
	case schema.KindInt32, schema.KindUint32, schema.KindFloat32:
		return 4
	case schema.KindInt64, schema.KindUint64, schema.KindFloat64:
		return 8
	case schema.KindPointer, schema.KindString, schema.KindCallback:
		return unsafe.Sizeof(uintptr(0))
	}
	return 0
}

// writeScalar stores an already-coerced value at p. The value must come from
// CoerceScalar for the same kind.
func writeScalar(p unsafe.Pointer, kind schema.TypeKind, coerced any) {
	switch kind {
	case schema.KindBool:
		if coerced.(bool) {
			*(*uint8)(p) = 1
		} else {
			*(*uint8)(p) = 0
		}
	case schema.KindInt8:
		*(*int8)(p) = coerced.(int8)
	case schema.KindInt16:
		*(*int16)(p) = coerced.(int16)
	case schema.KindInt32:
		*(*int32)(p) = coerced.(int32)
	case schema.KindInt64:
		*(*int64)(p) = coerced.(int64)
	case schema.KindUint8:
		*(*uint8)(p) = coerced.(uint8)
	case schema.KindUint16:
		*(*uint16)(p) = coerced.(uint16)
	case schema.KindUint32:
		*(*uint32)(p) = coerced.(uint32)
	case schema.KindUint64:
		*(*uint64)(p) = coerced.(uint64)
	case schema.KindFloat32:
		*(*float32)(p) = coerced.(float32)
	case schema.KindFloat64:
		*(*float64)(p) = coerced.(float64)
	case schema.KindPointer:
		*(*uintptr)(p) = coerced.(uintptr)
	}
}

// readScalar loads the scalar at p as its natural Go type.
func readScalar(p unsafe.Pointer, kind schema.TypeKind) any {
	switch kind {
	case schema.KindBool:
		return *(*uint8)(p) != 0
	case schema.KindInt8:
		return *(*int8)(p)
	case schema.KindInt16:
		return *(*int16)(p)
	case schema.KindInt32:
		return *(*int32)(p)
	case schema.KindInt64:
		return *(*int64)(p)
	case schema.KindUint8:
		return *(*uint8)(p)
	case schema.KindUint16:
		return *(*uint16)(p)
	case schema.KindUint32:
		return *(*uint32)(p)
	case schema.KindUint64:
		return *(*uint64)(p)
	case schema.KindFloat32:
		return *(*float32)(p)
	case schema.KindFloat64:
		return *(*float64)(p)
	case schema.KindPointer:
		return *(*uintptr)(p)
	}
	return nil
}
