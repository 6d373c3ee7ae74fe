package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the load/call pipeline the error occurred
type Phase string

const (
	PhaseLocate    Phase = "locate"    // mapping file search
	PhaseParse     Phase = "parse"     // mapping file decoding
	PhaseValidate  Phase = "validate"  // schema validation
	PhaseResolve   Phase = "resolve"   // platform binary resolution
	PhaseLoad      Phase = "load"      // OS loader and symbol lookup
	PhaseMarshal   Phase = "marshal"   // Go to native
	PhaseInvoke    Phase = "invoke"    // native call
	PhaseUnmarshal Phase = "unmarshal" // native to Go
)

// Kind categorizes the error
type Kind string

const (
	KindMappingNotFound     Kind = "mapping_not_found"
	KindMappingParse        Kind = "mapping_parse"
	KindUnsupportedPlatform Kind = "unsupported_platform"
	KindLibraryLoad         Kind = "library_load"
	KindEntryPointNotFound  Kind = "entry_point_not_found"
	KindTypeResolution      Kind = "type_resolution"
	KindMarshaling          Kind = "marshaling"
	KindNativeInvocation    Kind = "native_invocation"
	KindUseAfterUnload      Kind = "use_after_unload"
	KindUnsupported         Kind = "unsupported"
)

// Error is the structured error type used throughout the library
type Error struct {
	Value      any
	Cause      error
	Phase      Phase
	Kind       Kind
	GoType     string
	NativeType string
	Detail     string
	Path       []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.GoType != "" || e.NativeType != "" {
		b.WriteString(": ")
		if e.GoType != "" && e.NativeType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
			b.WriteString(", native type ")
			b.WriteString(e.NativeType)
		} else if e.GoType != "" {
			b.WriteString("Go type ")
			b.WriteString(e.GoType)
		} else {
			b.WriteString("native type ")
			b.WriteString(e.NativeType)
		}
	}

	if e.Detail != "" {
		if e.GoType != "" || e.NativeType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether err is (or wraps) an *Error of the given kind,
// regardless of phase.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the export/struct/field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// NativeType sets the native type name
func (b *Builder) NativeType(t string) *Builder {
	b.err.NativeType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MappingNotFound reports that no candidate path contained a mapping file
// for the named library.
func MappingNotFound(library string, searched []string) *Error {
	return &Error{
		Phase:  PhaseLocate,
		Kind:   KindMappingNotFound,
		Path:   []string{library},
		Detail: fmt.Sprintf("no mapping file found in %d search path(s): %s", len(searched), strings.Join(searched, ", ")),
	}
}

// ParseFailed creates a mapping parse error
func ParseFailed(file string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindMappingParse,
		Detail: fmt.Sprintf("parse %s", file),
		Cause:  cause,
	}
}

// UnsupportedPlatform reports a missing (os, arch) entry in the platform table
func UnsupportedPlatform(library, goos, goarch string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedPlatform,
		Path:   []string{library},
		Detail: fmt.Sprintf("no binary declared for %s/%s", goos, goarch),
	}
}

// LibraryLoad wraps an OS loader rejection
func LibraryLoad(path string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindLibraryLoad,
		Detail: fmt.Sprintf("open %s", path),
		Cause:  cause,
	}
}

// EntryPointNotFound reports a symbol missing from the opened binary
func EntryPointNotFound(export, symbol, path string) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindEntryPointNotFound,
		Path:   []string{export},
		Detail: fmt.Sprintf("entry point %q not found in %s", symbol, path),
	}
}

// TypeResolution reports an unresolved or cyclic type reference
func TypeResolution(path []string, detail string) *Error {
	return &Error{
		Phase:  PhaseValidate,
		Kind:   KindTypeResolution,
		Path:   path,
		Detail: detail,
	}
}

// ArityMismatch reports a call with the wrong argument count
func ArityMismatch(export string, want, got int) *Error {
	return &Error{
		Phase:  PhaseMarshal,
		Kind:   KindMarshaling,
		Path:   []string{export},
		Detail: fmt.Sprintf("expected %d argument(s), got %d", want, got),
	}
}

// TypeMismatch creates a marshaling type mismatch error
func TypeMismatch(phase Phase, path []string, goType, nativeType string) *Error {
	return &Error{
		Phase:      phase,
		Kind:       KindMarshaling,
		Path:       path,
		GoType:     goType,
		NativeType: nativeType,
	}
}

// FieldMissing reports a host value missing a declared struct field
func FieldMissing(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMarshaling,
		Path:   path,
		Detail: fmt.Sprintf("required field %q not found", fieldName),
	}
}

// FieldUnknown reports a host value carrying a field the struct does not declare
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindMarshaling,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// Overflow reports a numeric value outside the target type's range
func Overflow(path []string, value any, targetType string) *Error {
	return &Error{
		Phase:      PhaseMarshal,
		Kind:       KindMarshaling,
		Path:       path,
		NativeType: targetType,
		Detail:     fmt.Sprintf("value %v overflows %s", value, targetType),
		Value:      value,
	}
}

// UseAfterUnload reports a call on a binding whose library was unloaded
func UseAfterUnload(library, export string) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindUseAfterUnload,
		Path:   []string{export},
		Detail: fmt.Sprintf("library %q has been unloaded", library),
	}
}

// NativeInvocation wraps a fault surfaced by the native call where the
// platform allows catching it.
func NativeInvocation(export string, cause error) *Error {
	return &Error{
		Phase:  PhaseInvoke,
		Kind:   KindNativeInvocation,
		Path:   []string{export},
		Detail: "native call faulted",
		Cause:  cause,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
