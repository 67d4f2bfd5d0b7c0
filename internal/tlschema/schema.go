// Package tlschema parses Telegram's Type Language (TL) schema text into a
// structured AST consumed by internal/tlgen to produce Go source.
//
// See https://core.telegram.org/mtproto/TL for the grammar this package
// implements.
package tlschema

import (
	"strconv"
	"strings"
)

// Category distinguishes a data constructor from an RPC function definition.
type Category int

const (
	// CategoryType marks a definition appearing before "---functions---".
	CategoryType Category = iota
	// CategoryFunction marks a definition appearing after "---functions---".
	CategoryFunction
)

func (c Category) String() string {
	if c == CategoryFunction {
		return "function"
	}
	return "type"
}

// Flag references a bit inside a preceding "name:#" flags parameter, e.g.
// the "flags.0" in "photo:flags.0?InputPhoto".
type Flag struct {
	Name  string
	Index uint32
}

// Type is the type of a definition's result or of a single parameter, e.g.
// "Vector<!X>" or "upload.File".
type Type struct {
	Namespace  []string
	Name       string
	Bare       bool
	GenericRef bool
	GenericArg *Type
}

// String renders the type the way it appears in TL source.
func (t Type) String() string {
	var b strings.Builder
	for _, ns := range t.Namespace {
		b.WriteString(ns)
		b.WriteByte('.')
	}
	if t.GenericRef {
		b.WriteByte('!')
	}
	b.WriteString(t.Name)
	if t.GenericArg != nil {
		b.WriteByte('<')
		b.WriteString(t.GenericArg.String())
		b.WriteByte('>')
	}
	return b.String()
}

// collectGenericRefs appends every generic-reference name nested in t to out.
func (t *Type) collectGenericRefs(out *[]string) {
	if t.GenericRef {
		*out = append(*out, t.Name)
	}
	if t.GenericArg != nil {
		t.GenericArg.collectGenericRefs(out)
	}
}

// ParameterKind distinguishes a flags-holder field from a regular typed one.
type ParameterKind int

const (
	// ParamNormal is a regular, possibly flag-guarded, typed parameter.
	ParamNormal ParameterKind = iota
	// ParamFlags is a "name:#" field whose value is computed at
	// serialization time from the optional parameters it guards.
	ParamFlags
)

// ParameterType is the type half of a Parameter: either the bare flags
// marker or a concrete Type with an optional flag guard.
type ParameterType struct {
	Kind ParameterKind
	Type Type  // valid when Kind == ParamNormal
	Flag *Flag // non-nil when this parameter only exists when Flag's bit is set
}

func (pt ParameterType) String() string {
	if pt.Kind == ParamFlags {
		return "#"
	}
	var b strings.Builder
	if pt.Flag != nil {
		b.WriteString(pt.Flag.Name)
		b.WriteByte('.')
		b.WriteString(strconv.FormatUint(uint64(pt.Flag.Index), 10))
		b.WriteByte('?')
	}
	b.WriteString(pt.Type.String())
	return b.String()
}

// Parameter is a single "name:type" field inside a Definition.
type Parameter struct {
	Name string
	Type ParameterType
}

func (p Parameter) String() string {
	return p.Name + ":" + p.Type.String()
}

// Definition is a single parsed TL constructor or function, e.g.
//
//	user#12345 id:long first_name:string = User;
type Definition struct {
	Namespace []string
	Name      string
	ID        uint32
	Params    []Parameter
	Type      Type
	Category  Category
}

// FullName returns Namespace and Name joined with dots.
func (d Definition) FullName() string {
	if len(d.Namespace) == 0 {
		return d.Name
	}
	return strings.Join(d.Namespace, ".") + "." + d.Name
}
