package schema

import "fmt"

// TypeKind enumerates the native type grammar.
type TypeKind int

const (
	KindInvalid TypeKind = iota
	KindVoid
	KindBool
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindPointer
	KindStruct
	KindCallback
	KindArray

	// KindNamed is a reference to a declared struct or callback that has
	// not been resolved yet. Validate rewrites it to KindStruct or
	// KindCallback.
	KindNamed
)

var kindNames = map[TypeKind]string{
	KindInvalid:  "invalid",
	KindVoid:     "void",
	KindBool:     "bool",
	KindInt8:     "int8",
	KindInt16:    "int16",
	KindInt32:    "int32",
	KindInt64:    "int64",
	KindUint8:    "uint8",
	KindUint16:   "uint16",
	KindUint32:   "uint32",
	KindUint64:   "uint64",
	KindFloat32:  "float32",
	KindFloat64:  "float64",
	KindString:   "string",
	KindPointer:  "pointer",
	KindStruct:   "struct",
	KindCallback: "callback",
	KindArray:    "array",
	KindNamed:    "named",
}

func (k TypeKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// IsPrimitive reports whether the kind is a fixed-size scalar.
func (k TypeKind) IsPrimitive() bool {
	switch k {
	case KindBool, KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64,
		KindFloat32, KindFloat64:
		return true
	}
	return false
}

// IsInteger reports whether the kind is an integer scalar.
func (k TypeKind) IsInteger() bool {
	switch k {
	case KindInt8, KindInt16, KindInt32, KindInt64,
		KindUint8, KindUint16, KindUint32, KindUint64:
		return true
	}
	return false
}

// Type is a parsed native type. Elem is set for arrays, Name for struct,
// callback and unresolved named references.
type Type struct {
	Kind TypeKind
	Elem *Type
	Name string
}

func (t Type) String() string {
	switch t.Kind {
	case KindArray:
		return "array(" + t.Elem.String() + ")"
	case KindStruct:
		return "struct(" + t.Name + ")"
	case KindCallback:
		return "callback(" + t.Name + ")"
	case KindNamed:
		return t.Name
	default:
		return t.Kind.String()
	}
}

// CallConv is the declared calling convention for an export.
type CallConv string

const (
	ConvCdecl    CallConv = "cdecl"
	ConvStdcall  CallConv = "stdcall"
	ConvFastcall CallConv = "fastcall"
)

// Ownership describes who frees a natively returned string buffer.
type Ownership string

const (
	// OwnBorrowed: the native side retains ownership; the engine copies
	// the bytes and never frees the buffer.
	OwnBorrowed Ownership = "borrowed"
	// OwnCaller: the buffer was allocated for the caller; the engine
	// copies the bytes and then releases the buffer through the export
	// named by FreeWith, resolved from the same library handle.
	OwnCaller Ownership = "caller-owned"
)

// ParamDef describes one function parameter.
type ParamDef struct {
	Name  string
	Type  Type
	ByRef bool
	Out   bool
}

// FunctionDef describes one exported function.
type FunctionDef struct {
	EntryPoint      string
	Returns         Type
	Params          []ParamDef
	Convention      CallConv
	ReturnOwnership Ownership // string returns only
	FreeWith        string    // symbol used to free caller-owned returns
}

// FieldDef describes one struct field. Offset is nil unless the schema
// declares an explicit byte offset.
type FieldDef struct {
	Name   string
	Type   Type
	Offset *uintptr
}

// LayoutMode selects how struct field offsets are assigned.
type LayoutMode string

const (
	LayoutSequential LayoutMode = "sequential"
	LayoutExplicit   LayoutMode = "explicit"
)

// StructDef describes one declared struct.
type StructDef struct {
	Name   string
	Layout LayoutMode
	Fields []FieldDef
}

// CallbackDef describes a native function-pointer type a caller may supply.
type CallbackDef struct {
	Name    string
	Returns Type
	Params  []ParamDef
}

// Schema is the parsed, validated in-memory form of a mapping file.
type Schema struct {
	// Library maps OS name to architecture to binary file name.
	Library   map[string]map[string]string
	Version   string
	Exports   map[string]*FunctionDef
	Structs   map[string]*StructDef
	Callbacks map[string]*CallbackDef
}
