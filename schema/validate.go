package schema

import (
	"sort"

	"github.com/wippyai/native-runtime/errors"
)

// Validate checks the schema against the type-graph invariants: the platform
// table is non-empty, every named reference resolves to a declared struct or
// callback, struct references are acyclic, explicit-offset structs declare
// offsets on all fields or none, and signature shapes are expressible in the
// C ABI. Named references are rewritten in place to struct or callback kinds.
func Validate(s *Schema) error {
	if err := validatePlatformTable(s); err != nil {
		return err
	}

	// Structs first so cycle errors surface with struct paths, not the
	// export that happened to reference them.
	names := make([]string, 0, len(s.Structs))
	for name := range s.Structs {
		names = append(names, name)
	}
	sort.Strings(names)

	state := map[string]int{} // 0 unvisited, 1 in progress, 2 done
	for _, name := range names {
		if err := checkStructCycle(s, name, state, nil); err != nil {
			return err
		}
	}

	for _, name := range names {
		if err := validateStruct(s, s.Structs[name]); err != nil {
			return err
		}
	}

	exportNames := make([]string, 0, len(s.Exports))
	for name := range s.Exports {
		exportNames = append(exportNames, name)
	}
	sort.Strings(exportNames)
	for _, name := range exportNames {
		if err := validateFunction(s, name, s.Exports[name]); err != nil {
			return err
		}
	}

	cbNames := make([]string, 0, len(s.Callbacks))
	for name := range s.Callbacks {
		cbNames = append(cbNames, name)
	}
	sort.Strings(cbNames)
	for _, name := range cbNames {
		if err := validateCallback(s, s.Callbacks[name]); err != nil {
			return err
		}
	}

	return nil
}

func validatePlatformTable(s *Schema) error {
	for _, arches := range s.Library {
		for _, file := range arches {
			if file != "" {
				return nil
			}
		}
	}
	return errors.New(errors.PhaseValidate, errors.KindTypeResolution).
		Detail("platform table declares no (os, arch) entries").
		Build()
}

func checkStructCycle(s *Schema, name string, state map[string]int, chain []string) error {
	switch state[name] {
	case 2:
		return nil
	case 1:
		return errors.TypeResolution(append(chain, name), "cyclic struct reference")
	}
	state[name] = 1

	sd := s.Structs[name]
	for i := range sd.Fields {
		f := &sd.Fields[i]
		ref := structRefName(f.Type)
		if ref == "" {
			continue
		}
		if _, ok := s.Structs[ref]; !ok {
			return errors.TypeResolution([]string{name, f.Name}, "unresolved struct reference "+ref)
		}
		if err := checkStructCycle(s, ref, state, append(chain, name)); err != nil {
			return err
		}
	}

	state[name] = 2
	return nil
}

// structRefName returns the referenced struct name if t is (or may be) a
// struct reference.
func structRefName(t Type) string {
	if t.Kind == KindNamed || t.Kind == KindStruct {
		return t.Name
	}
	return ""
}

// resolveNamed rewrites a KindNamed reference to KindStruct or KindCallback.
func resolveNamed(s *Schema, t *Type, path ...string) error {
	switch t.Kind {
	case KindNamed:
		if _, ok := s.Structs[t.Name]; ok {
			t.Kind = KindStruct
			return nil
		}
		if _, ok := s.Callbacks[t.Name]; ok {
			t.Kind = KindCallback
			return nil
		}
		return errors.TypeResolution(path, "unresolved type reference "+t.Name)
	case KindArray:
		return resolveNamed(s, t.Elem, path...)
	default:
		return nil
	}
}

func validateStruct(s *Schema, sd *StructDef) error {
	if len(sd.Fields) == 0 {
		return errors.TypeResolution([]string{sd.Name}, "struct declares no fields")
	}

	withOffset := 0
	for i := range sd.Fields {
		f := &sd.Fields[i]
		if err := resolveNamed(s, &f.Type, sd.Name, f.Name); err != nil {
			return err
		}
		switch f.Type.Kind {
		case KindStruct, KindPointer:
		default:
			if !f.Type.Kind.IsPrimitive() {
				return errors.TypeResolution([]string{sd.Name, f.Name},
					"field type "+f.Type.String()+" is not allowed in a struct")
			}
		}
		if f.Offset != nil {
			withOffset++
		}
	}

	// Offsets are all-or-none. A struct that declares them all is explicit
	// whether or not the mapping file said so; explicit mode without
	// offsets is an error.
	switch {
	case withOffset == len(sd.Fields):
		sd.Layout = LayoutExplicit
	case withOffset == 0:
		if sd.Layout == LayoutExplicit {
			return errors.TypeResolution([]string{sd.Name},
				"explicit layout requires a byte offset on every field")
		}
	default:
		return errors.TypeResolution([]string{sd.Name},
			"explicit offsets must be declared on all fields or none")
	}

	return nil
}

func validateFunction(s *Schema, name string, fn *FunctionDef) error {
	if err := resolveNamed(s, &fn.Returns, name); err != nil {
		return err
	}
	switch fn.Returns.Kind {
	case KindVoid, KindString, KindPointer, KindStruct:
	case KindArray:
		return errors.TypeResolution([]string{name},
			"array returns are not supported; declare a pointer return with an out length parameter")
	case KindCallback:
		return errors.TypeResolution([]string{name}, "callback returns are not supported")
	default:
		if !fn.Returns.Kind.IsPrimitive() {
			return errors.TypeResolution([]string{name}, "bad return type "+fn.Returns.String())
		}
	}

	hasArray := false
	hasIntLength := false
	for i := range fn.Params {
		p := &fn.Params[i]
		if err := resolveNamed(s, &p.Type, name, p.Name); err != nil {
			return err
		}
		switch p.Type.Kind {
		case KindVoid:
			return errors.TypeResolution([]string{name, p.Name}, "void parameter")
		case KindArray:
			hasArray = true
			if !p.Type.Elem.Kind.IsPrimitive() {
				return errors.TypeResolution([]string{name, p.Name},
					"array element must be a primitive type, got "+p.Type.Elem.String())
			}
		case KindString:
			if p.ByRef || p.Out {
				return errors.TypeResolution([]string{name, p.Name},
					"string parameters cannot be byRef or out")
			}
		case KindCallback:
			if p.ByRef || p.Out {
				return errors.TypeResolution([]string{name, p.Name},
					"callback parameters cannot be byRef or out")
			}
		}
		if p.Type.Kind.IsInteger() && !p.Out {
			hasIntLength = true
		}
	}

	// Array lengths are never inferred: the schema must declare a length
	// argument alongside any array parameter.
	if hasArray && !hasIntLength {
		return errors.TypeResolution([]string{name},
			"array parameter requires a separately declared integer length parameter")
	}

	return nil
}

func validateCallback(s *Schema, cb *CallbackDef) error {
	switch {
	case cb.Returns.Kind == KindVoid,
		cb.Returns.Kind == KindPointer,
		cb.Returns.Kind.IsPrimitive():
	default:
		return errors.TypeResolution([]string{cb.Name},
			"callback return must be void, a primitive or a pointer")
	}
	for i := range cb.Params {
		p := &cb.Params[i]
		if p.Type.Kind == KindPointer || p.Type.Kind.IsPrimitive() {
			continue
		}
		return errors.TypeResolution([]string{cb.Name, p.Name},
			"callback parameters must be primitives or pointers, got "+p.Type.String())
	}
	return nil
}
