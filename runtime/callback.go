package runtime

import (
	"reflect"

	"github.com/wippyai/native-runtime/dylib"
	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/marshal"
	"github.com/wippyai/native-runtime/schema"
)

// makeCallback wraps a host func value into a native function pointer
// matching the declared callback signature. A bridge built with
// reflect.MakeFunc converts between the host's parameter types and the
// native scalar representation on every callback dispatch.
func makeCallback(def *schema.CallbackDef, fn any, path []string) (uintptr, error) {
	hv := reflect.ValueOf(fn)
	if !hv.IsValid() || hv.Kind() != reflect.Func {
		return 0, errors.TypeMismatch(errors.PhaseMarshal, path,
			marshal.TypeName(fn), "callback("+def.Name+")")
	}
	ht := hv.Type()

	if ht.NumIn() != len(def.Params) || ht.IsVariadic() {
		return 0, errors.New(errors.PhaseMarshal, errors.KindMarshaling).
			Path(path...).
			Detail("callback %s takes %d parameters, host func takes %d",
				def.Name, len(def.Params), ht.NumIn()).
			Build()
	}

	nativeIn := make([]reflect.Type, len(def.Params))
	for i, p := range def.Params {
		nt, ok := callbackScalarType(p.Type.Kind)
		if !ok {
			return 0, errors.TypeResolution(append(path, p.Name),
				"callback parameter type "+p.Type.String()+" cannot cross the native boundary")
		}
		nativeIn[i] = nt
		if !nt.ConvertibleTo(ht.In(i)) {
			return 0, errors.TypeMismatch(errors.PhaseMarshal, append(path, p.Name),
				ht.In(i).String(), nt.String())
		}
	}

	var nativeOut []reflect.Type
	if def.Returns.Kind != schema.KindVoid {
		nt, ok := callbackScalarType(def.Returns.Kind)
		if !ok {
			return 0, errors.TypeResolution(path,
				"callback return type "+def.Returns.String()+" cannot cross the native boundary")
		}
		nativeOut = []reflect.Type{nt}
		if ht.NumOut() != 1 || !ht.Out(0).ConvertibleTo(nt) {
			return 0, errors.TypeMismatch(errors.PhaseMarshal, path,
				ht.String(), "func(...) "+nt.String())
		}
	} else if ht.NumOut() != 0 {
		return 0, errors.TypeMismatch(errors.PhaseMarshal, path, ht.String(), "func(...)")
	}

	bridgeType := reflect.FuncOf(nativeIn, nativeOut, false)
	bridge := reflect.MakeFunc(bridgeType, func(in []reflect.Value) []reflect.Value {
		hostArgs := make([]reflect.Value, len(in))
		for i, v := range in {
			hostArgs[i] = v.Convert(ht.In(i))
		}
		out := hv.Call(hostArgs)
		if len(nativeOut) == 0 {
			return nil
		}
		return []reflect.Value{out[0].Convert(nativeOut[0])}
	})

	return dylib.NewCallback(bridge.Interface())
}

func callbackScalarType(kind schema.TypeKind) (reflect.Type, bool) {
	t, ok := scalarGoTypes[kind]
	return t, ok
}
