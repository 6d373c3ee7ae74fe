package runtime

import (
	"reflect"

	"github.com/wippyai/native-runtime/dylib"
	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/marshal"
	"github.com/wippyai/native-runtime/schema"
)

// Binding is one export prepared for invocation. The native signature is
// registered once at load time; Call only lowers arguments, invokes and
// lifts results. Bindings hold no per-call state and are safe for
// concurrent use.
type Binding struct {
	lib    *Library
	export string
	def    *schema.FunctionDef
	fn     *dylib.Func
	free   *dylib.Func
	params []paramPlan
	ret    retClass

	enc *marshal.Encoder
	dec *marshal.Decoder
}

type paramClass int

const (
	classScalar paramClass = iota
	classScalarSlot
	classString
	classArray
	classStruct
	classCallback
	classPointer
)

type paramPlan struct {
	def   schema.ParamDef
	class paramClass
	cb    *schema.CallbackDef
}

type retClass int

const (
	retVoid retClass = iota
	retScalar
	retString
	retPointer
	retStruct
)

var uintptrType = reflect.TypeOf(uintptr(0))

var scalarGoTypes = map[schema.TypeKind]reflect.Type{
	schema.KindBool:    reflect.TypeOf(false),
	schema.KindInt8:    reflect.TypeOf(int8(0)),
	schema.KindInt16:   reflect.TypeOf(int16(0)),
	schema.KindInt32:   reflect.TypeOf(int32(0)),
	schema.KindInt64:   reflect.TypeOf(int64(0)),
	schema.KindUint8:   reflect.TypeOf(uint8(0)),
	schema.KindUint16:  reflect.TypeOf(uint16(0)),
	schema.KindUint32:  reflect.TypeOf(uint32(0)),
	schema.KindUint64:  reflect.TypeOf(uint64(0)),
	schema.KindFloat32: reflect.TypeOf(float32(0)),
	schema.KindFloat64: reflect.TypeOf(float64(0)),
	schema.KindPointer: uintptrType,
}

// newBinding resolves the export's symbol and registers its native
// signature. Errors here fail the whole library load.
func newBinding(lib *Library, export string, def *schema.FunctionDef) (*Binding, error) {
	addr, err := lib.handle.Lookup(export, def.EntryPoint)
	if err != nil {
		return nil, err
	}

	b := &Binding{
		lib:    lib,
		export: export,
		def:    def,
		params: make([]paramPlan, len(def.Params)),
		enc:    marshal.NewEncoder(lib.layouts),
		dec:    marshal.NewDecoder(lib.layouts),
	}

	paramTypes := make([]reflect.Type, len(def.Params))
	for i, p := range def.Params {
		plan, goType, err := planParam(lib, export, p)
		if err != nil {
			return nil, err
		}
		b.params[i] = plan
		paramTypes[i] = goType
	}

	var resultTypes []reflect.Type
	switch {
	case def.Returns.Kind == schema.KindVoid:
		b.ret = retVoid
	case def.Returns.Kind == schema.KindString:
		b.ret = retString
		resultTypes = []reflect.Type{uintptrType}
	case def.Returns.Kind == schema.KindPointer:
		b.ret = retPointer
		resultTypes = []reflect.Type{uintptrType}
	case def.Returns.Kind == schema.KindStruct:
		b.ret = retStruct
		resultTypes = []reflect.Type{uintptrType}
	default:
		b.ret = retScalar
		resultTypes = []reflect.Type{scalarGoTypes[def.Returns.Kind]}
	}

	b.fn, err = dylib.BuildFunc(export, addr, paramTypes, resultTypes)
	if err != nil {
		return nil, err
	}

	if b.ret == retString && def.ReturnOwnership == schema.OwnCaller {
		freeAddr, err := lib.handle.Lookup(export, def.FreeWith)
		if err != nil {
			return nil, err
		}
		b.free, err = dylib.BuildFunc(def.FreeWith, freeAddr, []reflect.Type{uintptrType}, nil)
		if err != nil {
			return nil, err
		}
	}

	return b, nil
}

func planParam(lib *Library, export string, p schema.ParamDef) (paramPlan, reflect.Type, error) {
	plan := paramPlan{def: p}

	switch {
	case p.Type.Kind.IsPrimitive():
		if p.ByRef || p.Out {
			plan.class = classScalarSlot
			return plan, uintptrType, nil
		}
		plan.class = classScalar
		return plan, scalarGoTypes[p.Type.Kind], nil

	case p.Type.Kind == schema.KindPointer:
		if p.ByRef || p.Out {
			plan.class = classScalarSlot
		} else {
			plan.class = classPointer
		}
		return plan, uintptrType, nil

	case p.Type.Kind == schema.KindString:
		plan.class = classString
		return plan, uintptrType, nil

	case p.Type.Kind == schema.KindArray:
		plan.class = classArray
		return plan, uintptrType, nil

	case p.Type.Kind == schema.KindStruct:
		plan.class = classStruct
		return plan, uintptrType, nil

	case p.Type.Kind == schema.KindCallback:
		cb, ok := lib.schema.Callbacks[p.Type.Name]
		if !ok {
			return plan, nil, errors.TypeResolution([]string{export, p.Name}, "unresolved callback reference "+p.Type.Name)
		}
		plan.class = classCallback
		plan.cb = cb
		return plan, uintptrType, nil
	}

	return plan, nil, errors.TypeResolution([]string{export, p.Name}, "parameter type "+p.Type.String()+" cannot cross the native boundary")
}

// Export returns the export name the binding serves.
func (b *Binding) Export() string { return b.export }

// Call lowers args, invokes the native function and lifts the result.
// Arguments follow the schema's parameter order; byRef and out parameters
// take a *marshal.Ref whose Value is updated after the call.
func (b *Binding) Call(args ...any) (any, error) {
	if !b.lib.loaded() {
		return nil, errors.UseAfterUnload(b.lib.name, b.export)
	}
	if len(args) != len(b.params) {
		return nil, errors.ArityMismatch(b.export, len(b.params), len(args))
	}

	arena := marshal.NewArena()
	defer arena.Release()

	vals := make([]reflect.Value, len(args))
	var readbacks []func() error

	for i, pl := range b.params {
		v, rb, err := b.lowerArg(arena, pl, args[i])
		if err != nil {
			return nil, err
		}
		vals[i] = v
		if rb != nil {
			readbacks = append(readbacks, rb)
		}
	}

	res, err := b.fn.Invoke(vals)
	if err != nil {
		return nil, err
	}

	for _, rb := range readbacks {
		if err := rb(); err != nil {
			return nil, err
		}
	}

	return b.liftResult(res)
}

func (b *Binding) lowerArg(arena *marshal.Arena, pl paramPlan, arg any) (reflect.Value, func() error, error) {
	path := []string{b.export, pl.def.Name}

	switch pl.class {
	case classScalar, classPointer:
		coerced, err := marshal.CoerceScalar(pl.def.Type.Kind, arg, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		return reflect.ValueOf(coerced), nil, nil

	case classScalarSlot:
		ref, ok := arg.(*marshal.Ref)
		if !ok {
			return reflect.Value{}, nil, errors.TypeMismatch(errors.PhaseMarshal, path,
				marshal.TypeName(arg), pl.def.Type.String()+" by reference (*marshal.Ref)")
		}
		slot, err := b.enc.ScalarSlot(arena, pl.def.Type.Kind, ref.Value, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		kind := pl.def.Type.Kind
		readback := func() error {
			ref.Value = marshal.ScalarAt(slot, kind)
			return nil
		}
		return reflect.ValueOf(uintptr(slot)), readback, nil

	case classString:
		s, ok := arg.(string)
		if !ok {
			return reflect.Value{}, nil, errors.TypeMismatch(errors.PhaseMarshal, path,
				marshal.TypeName(arg), "string")
		}
		p, err := b.enc.String(arena, s, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		return reflect.ValueOf(uintptr(p)), nil, nil

	case classArray:
		elem := *pl.def.Type.Elem
		p, n, err := b.enc.Array(arena, elem, arg, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		var readback func() error
		if pl.def.ByRef || pl.def.Out {
			src := arg
			readback = func() error {
				return marshal.ArrayBack(p, elem, src, n, path)
			}
		}
		return reflect.ValueOf(uintptr(p)), readback, nil

	case classStruct:
		sv, err := b.enc.Struct(arena, pl.def.Type.Name, arg, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		var readback func() error
		if m, ok := arg.(map[string]any); ok && (pl.def.ByRef || pl.def.Out) {
			readback = func() error {
				for k, v := range sv.AsMap() {
					m[k] = v
				}
				return nil
			}
		}
		return reflect.ValueOf(uintptr(sv.Ptr())), readback, nil

	case classCallback:
		if addr, ok := arg.(uintptr); ok {
			return reflect.ValueOf(addr), nil, nil
		}
		addr, err := makeCallback(pl.cb, arg, path)
		if err != nil {
			return reflect.Value{}, nil, err
		}
		return reflect.ValueOf(addr), nil, nil
	}

	return reflect.Value{}, nil, errors.TypeMismatch(errors.PhaseMarshal, path,
		marshal.TypeName(arg), pl.def.Type.String())
}

func (b *Binding) liftResult(res []reflect.Value) (any, error) {
	switch b.ret {
	case retVoid:
		return nil, nil

	case retScalar, retPointer:
		return res[0].Interface(), nil

	case retString:
		addr := res[0].Interface().(uintptr)
		s := marshal.CString(addr)
		if b.free != nil && addr != 0 {
			if _, err := b.free.Invoke([]reflect.Value{reflect.ValueOf(addr)}); err != nil {
				return nil, err
			}
		}
		return s, nil

	case retStruct:
		addr := res[0].Interface().(uintptr)
		sv, err := b.dec.StructAt(b.def.Returns.Name, addr)
		if err != nil {
			return nil, err
		}
		if sv == nil {
			return nil, nil
		}
		return sv, nil
	}

	return nil, errors.New(errors.PhaseUnmarshal, errors.KindMarshaling).
		Path(b.export).
		Detail("unhandled return class").
		Build()
}
