package runtime

import (
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/native-runtime/dylib"
	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/layout"
	"github.com/wippyai/native-runtime/marshal"
	"github.com/wippyai/native-runtime/schema"
)

const (
	stateUnloaded int32 = iota
	stateLoading
	stateLoaded
)

// Library is one loaded shared library with its bindings.
type Library struct {
	name    string
	schema  *schema.Schema
	handle  *dylib.Handle
	layouts *layout.Calculator
	log     *zap.Logger

	bindings map[string]*Binding
	state    atomic.Int32
}

// Name returns the registry name the library was loaded under.
func (l *Library) Name() string { return l.name }

// Version returns the schema's declared version, empty if absent.
func (l *Library) Version() string { return l.schema.Version }

// BinaryPath returns the resolved shared-library path.
func (l *Library) BinaryPath() string { return l.handle.Path() }

// Exports returns the declared export names, sorted.
func (l *Library) Exports() []string {
	names := make([]string, 0, len(l.bindings))
	for name := range l.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExportInfo is one entry of the introspection surface.
type ExportInfo struct {
	Name       string
	EntryPoint string
	Signature  string
}

// Surface renders the full export surface for inspection tooling.
func (l *Library) Surface() []ExportInfo {
	infos := make([]ExportInfo, 0, len(l.bindings))
	for _, name := range l.Exports() {
		def := l.schema.Exports[name]
		infos = append(infos, ExportInfo{
			Name:       name,
			EntryPoint: def.EntryPoint,
			Signature:  renderSignature(name, def),
		})
	}
	return infos
}

func renderSignature(name string, def *schema.FunctionDef) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range def.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(p.Type.String())
		if p.Out {
			b.WriteString(" out")
		} else if p.ByRef {
			b.WriteString(" byRef")
		}
	}
	b.WriteString(") ")
	b.WriteString(def.Returns.String())
	return b.String()
}

// Layouts exposes the library's layout calculator.
func (l *Library) Layouts() *layout.Calculator { return l.layouts }

// StructNames returns the declared struct names, unsorted.
func (l *Library) StructNames() []string {
	names := make([]string, 0, len(l.schema.Structs))
	for name := range l.schema.Structs {
		names = append(names, name)
	}
	return names
}

// Export returns the declared definition of an export.
func (l *Library) Export(name string) (*schema.FunctionDef, error) {
	def, ok := l.schema.Exports[name]
	if !ok {
		return nil, errors.New(errors.PhaseInvoke, errors.KindEntryPointNotFound).
			Path(l.name, name).
			Detail("library %s declares no export %q", l.name, name).
			Build()
	}
	return def, nil
}

// Binding returns the binding for a declared export.
func (l *Library) Binding(export string) (*Binding, error) {
	b, ok := l.bindings[export]
	if !ok {
		return nil, errors.New(errors.PhaseInvoke, errors.KindEntryPointNotFound).
			Path(l.name, export).
			Detail("library %s declares no export %q", l.name, export).
			Build()
	}
	return b, nil
}

// Call invokes a declared export in one step.
func (l *Library) Call(export string, args ...any) (any, error) {
	b, err := l.Binding(export)
	if err != nil {
		return nil, err
	}
	return b.Call(args...)
}

// NewStruct builds a struct value for a declared struct type. Unknown field
// names are marshaling errors; omitted fields stay zero.
func (l *Library) NewStruct(name string, fields map[string]any) (*marshal.StructValue, error) {
	if _, ok := l.schema.Structs[name]; !ok {
		return nil, errors.TypeResolution([]string{l.name, name}, "unresolved struct reference")
	}
	info, err := l.layouts.Struct(name)
	if err != nil {
		return nil, err
	}
	return marshal.NewStructValue(name, info, fields, l.layouts)
}

func (l *Library) loaded() bool {
	return l.state.Load() == stateLoaded
}

func (l *Library) close() error {
	if l.state.Swap(stateUnloaded) == stateUnloaded {
		return nil
	}
	l.log.Debug("library unloaded", zap.String("library", l.name))
	return l.handle.Close()
}
