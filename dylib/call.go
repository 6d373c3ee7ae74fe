package dylib

import (
	"fmt"
	"reflect"

	"github.com/ebitengine/purego"

	"github.com/wippyai/native-runtime/errors"
)

// Func is one native entry point registered for dynamic invocation.
type Func struct {
	export string
	call   reflect.Value
}

// BuildFunc constructs a callable for the symbol at addr with the given
// native-level Go signature. The signature uses the lowered representation
// of each parameter: scalars as their Go counterparts, everything passed by
// address as uintptr.
func BuildFunc(export string, addr uintptr, params, results []reflect.Type) (f *Func, err error) {
	defer func() {
		if r := recover(); r != nil {
			f = nil
			err = errors.New(errors.PhaseLoad, errors.KindTypeResolution).
				Path(export).
				Detail("cannot register native signature: %v", r).
				Build()
		}
	}()

	fnType := reflect.FuncOf(params, results, false)
	fnPtr := reflect.New(fnType)
	purego.RegisterFunc(fnPtr.Interface(), addr)

	return &Func{export: export, call: fnPtr.Elem()}, nil
}

// Invoke calls the native function with already-lowered arguments. A panic
// raised while crossing the boundary is converted into a native_invocation
// error rather than unwinding the caller.
func (f *Func) Invoke(args []reflect.Value) (results []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			results = nil
			err = errors.NativeInvocation(f.export, fmt.Errorf("%v", r))
		}
	}()
	return f.call.Call(args), nil
}

// NewCallback turns a Go function into a native function pointer that can
// be passed as a callback argument. The pointer stays valid for the life of
// the process; purego imposes a process-wide cap on distinct callbacks.
func NewCallback(fn any) (cb uintptr, err error) {
	defer func() {
		if r := recover(); r != nil {
			cb = 0
			err = errors.New(errors.PhaseMarshal, errors.KindMarshaling).
				Detail("cannot create native callback: %v", r).
				Build()
		}
	}()
	return purego.NewCallback(fn), nil
}
