package tlgen

import "github.com/ankit-chaubey/layer/internal/tlschema"

// scalar is a TL primitive that internal/tlcodec already knows how to
// read and write directly.
type scalar struct {
	goType   string
	put, get string // tlcodec.Writer/Reader method name suffix, e.g. "Int32"
}

var scalars = map[string]scalar{
	"int":    {"int32", "Int32", "Int32"},
	"long":   {"int64", "Int64", "Int64"},
	"double": {"float64", "Float64", "Float64"},
	"string": {"string", "String", "String"},
	"bytes":  {"[]byte", "Bytes", "Bytes"},
	"Bool":   {"bool", "Bool", "Bool"},
	"int128": {"[16]byte", "Int128", "Int128"},
	"int256": {"[32]byte", "Int256", "Int256"},
}

// fieldType describes the resolved Go shape of a single parameter.
type fieldType struct {
	scalarName string // key into scalars, "" if not a plain scalar
	trueFlag   bool   // TL type "true": presence-only, no wire bytes of its own
	vector     bool
	elem       *fieldType // set when vector is true
	boxedGo    string     // Go type name of a referenced boxed union, set when not scalar/vector/trueFlag
}

func resolveType(t tlschema.Type) fieldType {
	if t.Name == "Vector" && t.GenericArg != nil {
		inner := resolveType(*t.GenericArg)
		return fieldType{vector: true, elem: &inner}
	}
	if t.Name == "true" {
		return fieldType{trueFlag: true}
	}
	if _, ok := scalars[t.Name]; ok && len(t.Namespace) == 0 {
		return fieldType{scalarName: t.Name}
	}
	return fieldType{boxedGo: GoName(t.Namespace, t.Name)}
}

// Field is one struct field generated for a constructor or function.
type Field struct {
	TLName    string
	GoField   string
	Type      fieldType
	Optional  bool
	FlagWord  string // TL name of the guarding "flags:#" parameter
	FlagIndex uint32
}

// item is one entry in a constructor's wire-order parameter list: either a
// flags word (contributes no struct field, just a bitmask read/written at
// its textual position) or a real Field.
type item struct {
	flagWord string // non-empty for a "name:#" flags word
	field    Field  // valid when flagWord == ""
}

// Constructor is one concrete, encodable/decodable TL record: either a
// data constructor (grouped under its boxed Union) or an RPC function.
type Constructor struct {
	Def       tlschema.Definition
	GoName    string // e.g. "UpdatesDifferenceEmpty"
	Variant   string // field name inside its Union, e.g. "Empty"; empty for functions
	Fields    []Field
	items     []item // Fields interleaved with flag words, in wire order
	ReturnGo  string // functions only: Go type name of the decoded reply
	ReturnVec bool   // functions only: reply type is Vector<ReturnGo>
}

// Union is a boxed TL type and every constructor that produces it.
type Union struct {
	GoName       string
	Constructors []*Constructor
}

// Schema is the full intermediate form tlgen builds from a parsed TL file
// before rendering Go source.
type Schema struct {
	Unions    []*Union
	Functions []*Constructor
}

// Build groups parsed definitions into Unions (data constructors, keyed by
// boxed result type) and a flat Functions list (RPC methods).
func Build(defs []tlschema.Definition) *Schema {
	s := &Schema{}
	byType := map[string]*Union{}
	var order []string

	for _, d := range defs {
		ctor := buildConstructor(d)
		if d.Category == tlschema.CategoryFunction {
			rt := resolveType(d.Type)
			ctor.ReturnGo = rt.boxedGo
			if rt.vector {
				ctor.ReturnVec = true
				ctor.ReturnGo = rt.elem.boxedGo
			}
			s.Functions = append(s.Functions, ctor)
			continue
		}

		key := d.Type.String()
		u, ok := byType[key]
		if !ok {
			u = &Union{GoName: GoName(d.Type.Namespace, d.Type.Name)}
			byType[key] = u
			order = append(order, key)
		}
		// A constructor whose PascalCase name exactly matches its own boxed
		// type's name (common for single-variant types, e.g. "chatPhoto" =
		// ChatPhoto) would otherwise declare the same Go type twice: once
		// as the union wrapper, once as the lone constructor record.
		if ctor.GoName == u.GoName {
			ctor.GoName += "Value"
		}
		ctor.Variant = VariantName(ctor.GoName, u.GoName)
		u.Constructors = append(u.Constructors, ctor)
	}

	for _, k := range order {
		s.Unions = append(s.Unions, byType[k])
	}
	return s
}

func buildConstructor(d tlschema.Definition) *Constructor {
	c := &Constructor{Def: d, GoName: GoName(d.Namespace, d.Name)}
	for _, p := range d.Params {
		if p.Type.Kind == tlschema.ParamFlags {
			c.items = append(c.items, item{flagWord: p.Name})
			continue
		}
		f := Field{
			TLName:  p.Name,
			GoField: SafeFieldName(p.Name),
			Type:    resolveType(p.Type.Type),
		}
		if p.Type.Flag != nil {
			f.Optional = true
			f.FlagWord = p.Type.Flag.Name
			f.FlagIndex = p.Type.Flag.Index
		}
		c.Fields = append(c.Fields, f)
		c.items = append(c.items, item{field: f})
	}
	return c
}
