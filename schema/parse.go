package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/coreos/go-semver/semver"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/native-runtime/errors"
)

// Wire representation of a mapping file. Field order inside a struct
// declaration is significant, so fields are arrays, not maps.

type wireParam struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	ByRef bool   `json:"byRef" yaml:"byRef"`
	Out   bool   `json:"out" yaml:"out"`
}

type wireFunction struct {
	EntryPoint        string      `json:"entryPoint" yaml:"entryPoint"`
	Returns           string      `json:"returns" yaml:"returns"`
	Parameters        []wireParam `json:"parameters" yaml:"parameters"`
	CallingConvention string      `json:"callingConvention" yaml:"callingConvention"`
	ReturnsOwnership  string      `json:"returnsOwnership" yaml:"returnsOwnership"`
	FreeWith          string      `json:"freeWith" yaml:"freeWith"`
}

type wireField struct {
	Name   string  `json:"name" yaml:"name"`
	Type   string  `json:"type" yaml:"type"`
	Offset *uint64 `json:"offset" yaml:"offset"`
}

type wireStruct struct {
	Layout string      `json:"layout" yaml:"layout"`
	Fields []wireField `json:"fields" yaml:"fields"`
}

type wireCallback struct {
	Returns    string      `json:"returns" yaml:"returns"`
	Parameters []wireParam `json:"parameters" yaml:"parameters"`
}

type wireSchema struct {
	Library   map[string]map[string]string `json:"library" yaml:"library"`
	Version   string                       `json:"version" yaml:"version"`
	Exports   map[string]wireFunction      `json:"exports" yaml:"exports"`
	Structs   map[string]wireStruct        `json:"structs" yaml:"structs"`
	Callbacks map[string]wireCallback      `json:"callbacks" yaml:"callbacks"`
}

// ParseFile reads and decodes a mapping file. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON. The result is not validated;
// call Validate before use.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ParseFailed(path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data, path)
	default:
		return ParseJSON(data, path)
	}
}

// ParseJSON decodes a JSON mapping document. The name is used in error
// messages only.
func ParseJSON(data []byte, name string) (*Schema, error) {
	var w wireSchema
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.ParseFailed(name, err)
	}
	return fromWire(&w, name)
}

// ParseYAML decodes a YAML mapping document with the same shape as the JSON
// form.
func ParseYAML(data []byte, name string) (*Schema, error) {
	var w wireSchema
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, errors.ParseFailed(name, err)
	}
	return fromWire(&w, name)
}

func fromWire(w *wireSchema, name string) (*Schema, error) {
	s := &Schema{
		Library:   w.Library,
		Version:   w.Version,
		Exports:   make(map[string]*FunctionDef, len(w.Exports)),
		Structs:   make(map[string]*StructDef, len(w.Structs)),
		Callbacks: make(map[string]*CallbackDef, len(w.Callbacks)),
	}

	if w.Version != "" {
		if _, err := semver.NewVersion(w.Version); err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Detail("invalid version %q in %s", w.Version, name).
				Cause(err).
				Build()
		}
	}

	for exportName, wf := range w.Exports {
		fn, err := parseFunction(exportName, &wf)
		if err != nil {
			return nil, err
		}
		s.Exports[exportName] = fn
	}

	for structName, ws := range w.Structs {
		sd, err := parseStruct(structName, &ws)
		if err != nil {
			return nil, err
		}
		s.Structs[structName] = sd
	}

	for cbName, wc := range w.Callbacks {
		cb := &CallbackDef{Name: cbName}
		var err error
		cb.Returns, err = parseReturnType(wc.Returns, cbName)
		if err != nil {
			return nil, err
		}
		cb.Params, err = parseParams(wc.Parameters, cbName)
		if err != nil {
			return nil, err
		}
		s.Callbacks[cbName] = cb
	}

	return s, nil
}

func parseFunction(exportName string, wf *wireFunction) (*FunctionDef, error) {
	fn := &FunctionDef{
		EntryPoint: wf.EntryPoint,
		Convention: ConvCdecl,
		FreeWith:   "free",
	}
	if fn.EntryPoint == "" {
		fn.EntryPoint = exportName
	}

	var err error
	fn.Returns, err = parseReturnType(wf.Returns, exportName)
	if err != nil {
		return nil, err
	}

	fn.Params, err = parseParams(wf.Parameters, exportName)
	if err != nil {
		return nil, err
	}

	if wf.CallingConvention != "" {
		switch CallConv(wf.CallingConvention) {
		case ConvCdecl, ConvStdcall, ConvFastcall:
			fn.Convention = CallConv(wf.CallingConvention)
		default:
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Path(exportName).
				Detail("unknown calling convention %q", wf.CallingConvention).
				Build()
		}
	}

	fn.ReturnOwnership = OwnBorrowed
	if wf.ReturnsOwnership != "" {
		switch Ownership(wf.ReturnsOwnership) {
		case OwnBorrowed, OwnCaller:
			fn.ReturnOwnership = Ownership(wf.ReturnsOwnership)
		default:
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Path(exportName).
				Detail("unknown returnsOwnership %q", wf.ReturnsOwnership).
				Build()
		}
	}
	if wf.FreeWith != "" {
		fn.FreeWith = wf.FreeWith
	}

	return fn, nil
}

func parseStruct(structName string, ws *wireStruct) (*StructDef, error) {
	sd := &StructDef{
		Name:   structName,
		Layout: LayoutSequential,
	}
	if ws.Layout != "" {
		switch LayoutMode(ws.Layout) {
		case LayoutSequential, LayoutExplicit:
			sd.Layout = LayoutMode(ws.Layout)
		default:
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Path(structName).
				Detail("unknown layout mode %q", ws.Layout).
				Build()
		}
	}

	for _, wfd := range ws.Fields {
		t, err := ParseType(wfd.Type)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Path(structName, wfd.Name).
				Cause(err).
				Detail("bad field type").
				Build()
		}
		fd := FieldDef{Name: wfd.Name, Type: t}
		if wfd.Offset != nil {
			off := uintptr(*wfd.Offset)
			fd.Offset = &off
		}
		sd.Fields = append(sd.Fields, fd)
	}

	return sd, nil
}

func parseParams(wps []wireParam, owner string) ([]ParamDef, error) {
	params := make([]ParamDef, 0, len(wps))
	for _, wp := range wps {
		t, err := ParseType(wp.Type)
		if err != nil {
			return nil, errors.New(errors.PhaseParse, errors.KindMappingParse).
				Path(owner, wp.Name).
				Cause(err).
				Detail("bad parameter type").
				Build()
		}
		params = append(params, ParamDef{
			Name:  wp.Name,
			Type:  t,
			ByRef: wp.ByRef,
			Out:   wp.Out,
		})
	}
	return params, nil
}

func parseReturnType(s, owner string) (Type, error) {
	if s == "" {
		return Type{Kind: KindVoid}, nil
	}
	t, err := ParseType(s)
	if err != nil {
		return Type{}, errors.New(errors.PhaseParse, errors.KindMappingParse).
			Path(owner).
			Cause(err).
			Detail("bad return type").
			Build()
	}
	return t, nil
}

// typeAliases maps the C-flavored spellings mapping files commonly use onto
// the canonical grammar.
var typeAliases = map[string]TypeKind{
	"void":    KindVoid,
	"bool":    KindBool,
	"int8":    KindInt8,
	"sbyte":   KindInt8,
	"int16":   KindInt16,
	"short":   KindInt16,
	"int32":   KindInt32,
	"int":     KindInt32,
	"int64":   KindInt64,
	"long":    KindInt64,
	"uint8":   KindUint8,
	"byte":    KindUint8,
	"uint16":  KindUint16,
	"ushort":  KindUint16,
	"uint32":  KindUint32,
	"uint":    KindUint32,
	"uint64":  KindUint64,
	"ulong":   KindUint64,
	"float32": KindFloat32,
	"float":   KindFloat32,
	"float64": KindFloat64,
	"double":  KindFloat64,
	"string":  KindString,
	"char*":   KindString,
	"pointer": KindPointer,
	"void*":   KindPointer,
	"intptr":  KindPointer,
}

// ParseType parses a type expression from a mapping file. Recognized forms:
// primitive names and their aliases, "elem[]" and "array(elem)" for arrays,
// "struct(Name)" for explicit struct references, and bare identifiers for
// declared struct or callback names (resolved during validation).
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Type{}, fmt.Errorf("empty type")
	}

	if kind, ok := typeAliases[strings.ToLower(s)]; ok {
		return Type{Kind: kind}, nil
	}

	if strings.HasSuffix(s, "[]") {
		elem, err := ParseType(strings.TrimSuffix(s, "[]"))
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindArray, Elem: &elem}, nil
	}

	if inner, ok := unwrap(s, "array"); ok {
		elem, err := ParseType(inner)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindArray, Elem: &elem}, nil
	}

	if inner, ok := unwrap(s, "struct"); ok {
		if !isIdent(inner) {
			return Type{}, fmt.Errorf("bad struct name %q", inner)
		}
		return Type{Kind: KindNamed, Name: inner}, nil
	}

	if isIdent(s) {
		return Type{Kind: KindNamed, Name: s}, nil
	}

	return Type{}, fmt.Errorf("unrecognized type %q", s)
}

func unwrap(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix+"(") && strings.HasSuffix(s, ")") {
		return strings.TrimSpace(s[len(prefix)+1 : len(s)-1]), true
	}
	return "", false
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
