package layout

import (
	"unsafe"

	"github.com/wippyai/native-runtime/errors"
	"github.com/wippyai/native-runtime/schema"
)

// PointerSize is the native pointer size on this machine.
const PointerSize = unsafe.Sizeof(uintptr(0))

// Field is one field's computed placement.
type Field struct {
	Name   string
	Type   schema.Type
	Offset uintptr
	Size   uintptr
}

// Info is the computed layout of a type.
type Info struct {
	Size      uintptr
	Align     uintptr
	FieldOffs map[string]uintptr
	Fields    []Field // declaration order
}

// Calculator computes and caches struct layouts for one schema.
type Calculator struct {
	structs map[string]*schema.StructDef
	cache   map[string]Info
}

func NewCalculator(structs map[string]*schema.StructDef) *Calculator {
	return &Calculator{
		structs: structs,
		cache:   make(map[string]Info, len(structs)),
	}
}

// Calculate returns the layout for any field-eligible type.
func (c *Calculator) Calculate(t schema.Type) (Info, error) {
	switch t.Kind {
	case schema.KindBool, schema.KindInt8, schema.KindUint8:
		return Info{Size: 1, Align: 1}, nil
	case schema.KindInt16, schema.KindUint16:
		return Info{Size: 2, Align: 2}, nil
	case schema.KindInt32, schema.KindUint32, schema.KindFloat32:
		return Info{Size: 4, Align: 4}, nil
	case schema.KindInt64, schema.KindUint64, schema.KindFloat64:
		return Info{Size: 8, Align: 8}, nil
	case schema.KindPointer, schema.KindString, schema.KindCallback:
		return Info{Size: PointerSize, Align: PointerSize}, nil
	case schema.KindStruct:
		return c.Struct(t.Name)
	default:
		return Info{}, errors.New(errors.PhaseValidate, errors.KindTypeResolution).
			Detail("type %s has no native layout", t.String()).
			Build()
	}
}

// Struct returns the layout for a declared struct, computing and caching it
// on first use.
func (c *Calculator) Struct(name string) (Info, error) {
	return c.structLayout(name, nil)
}

func (c *Calculator) structLayout(name string, chain []string) (Info, error) {
	if info, ok := c.cache[name]; ok {
		return info, nil
	}

	sd, ok := c.structs[name]
	if !ok {
		return Info{}, errors.TypeResolution(append(chain, name), "unresolved struct reference")
	}
	for _, seen := range chain {
		if seen == name {
			return Info{}, errors.TypeResolution(append(chain, name), "cyclic struct reference")
		}
	}
	chain = append(chain, name)

	var info Info
	var err error
	if sd.Layout == schema.LayoutExplicit {
		info, err = c.explicitLayout(sd, chain)
	} else {
		info, err = c.sequentialLayout(sd, chain)
	}
	if err != nil {
		return Info{}, err
	}

	c.cache[name] = info
	return info, nil
}

func (c *Calculator) sequentialLayout(sd *schema.StructDef, chain []string) (Info, error) {
	fieldOffs := make(map[string]uintptr, len(sd.Fields))
	fields := make([]Field, 0, len(sd.Fields))
	maxAlign := uintptr(1)
	offset := uintptr(0)

	for _, f := range sd.Fields {
		fl, err := c.fieldLayout(f, sd.Name, chain)
		if err != nil {
			return Info{}, err
		}

		offset = alignTo(offset, fl.Align)
		fieldOffs[f.Name] = offset
		fields = append(fields, Field{Name: f.Name, Type: f.Type, Offset: offset, Size: fl.Size})

		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		offset += fl.Size
	}

	return Info{
		Size:      alignTo(offset, maxAlign),
		Align:     maxAlign,
		FieldOffs: fieldOffs,
		Fields:    fields,
	}, nil
}

func (c *Calculator) explicitLayout(sd *schema.StructDef, chain []string) (Info, error) {
	fieldOffs := make(map[string]uintptr, len(sd.Fields))
	fields := make([]Field, 0, len(sd.Fields))
	maxAlign := uintptr(1)
	end := uintptr(0)

	for _, f := range sd.Fields {
		fl, err := c.fieldLayout(f, sd.Name, chain)
		if err != nil {
			return Info{}, err
		}

		offset := *f.Offset
		fieldOffs[f.Name] = offset
		fields = append(fields, Field{Name: f.Name, Type: f.Type, Offset: offset, Size: fl.Size})

		if fl.Align > maxAlign {
			maxAlign = fl.Align
		}
		if offset+fl.Size > end {
			end = offset + fl.Size
		}
	}

	size := alignTo(end, maxAlign)
	if size == 0 {
		size = 1
	}

	return Info{
		Size:      size,
		Align:     maxAlign,
		FieldOffs: fieldOffs,
		Fields:    fields,
	}, nil
}

func (c *Calculator) fieldLayout(f schema.FieldDef, owner string, chain []string) (Info, error) {
	if f.Type.Kind == schema.KindStruct {
		return c.structLayout(f.Type.Name, chain)
	}
	info, err := c.Calculate(f.Type)
	if err != nil {
		return Info{}, errors.TypeResolution([]string{owner, f.Name}, "field type "+f.Type.String()+" has no native layout")
	}
	return info, nil
}

func alignTo(offset, align uintptr) uintptr {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
