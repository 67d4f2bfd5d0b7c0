package tlgen

import (
	"fmt"
	"go/format"
	"sort"
	"strings"
)

// Options configures the rendered output.
type Options struct {
	// Package is the package name emitted at the top of the generated
	// file, e.g. "tlgen181" for a file holding layer 181's schema.
	Package string
	// EmitNameTable adds a NameForID(id uint32) (string, bool) lookup
	// covering every constructor and function in the schema. Callers
	// that don't need constructor-id-to-name diagnostics can skip the
	// extra table.
	EmitNameTable bool
}

// Generate renders s as a complete, gofmt-formatted Go source file.
func Generate(s *Schema, opts Options) (string, error) {
	if opts.Package == "" {
		opts.Package = "tlgen"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\n", opts.Package)
	b.WriteString("import \"github.com/ankit-chaubey/layer/internal/tlcodec\"\n\n")

	for _, u := range s.Unions {
		renderUnion(&b, u)
		for _, c := range u.Constructors {
			renderConstructor(&b, c)
		}
	}
	for _, fn := range s.Functions {
		renderConstructor(&b, fn)
	}
	if opts.EmitNameTable {
		renderNameTable(&b, s)
	}

	src := b.String()
	formatted, err := format.Source([]byte(src))
	if err != nil {
		return "", fmt.Errorf("tlgen: generated source does not parse: %w", err)
	}
	return string(formatted), nil
}

// renderUnion emits the tagged-union struct for a boxed type and its
// Encode/Decode pair. Every variant is a pointer, which is also what
// breaks the cycle when a constructor's own field refers back to the
// union it belongs to.
func renderUnion(b *strings.Builder, u *Union) {
	fmt.Fprintf(b, "// %s is the boxed union of every constructor producing %s.\n", u.GoName, u.GoName)
	fmt.Fprintf(b, "type %s struct {\n", u.GoName)
	for _, c := range u.Constructors {
		fmt.Fprintf(b, "\t%s *%s\n", c.Variant, c.GoName)
	}
	b.WriteString("}\n\n")

	fmt.Fprintf(b, "func (v %s) Encode(w *tlcodec.Writer) {\n\tswitch {\n", u.GoName)
	for _, c := range u.Constructors {
		fmt.Fprintf(b, "\tcase v.%s != nil:\n\t\tv.%s.Encode(w)\n", c.Variant, c.Variant)
	}
	b.WriteString("\t}\n}\n\n")

	fmt.Fprintf(b, "func Decode%s(r *tlcodec.Reader) (%s, error) {\n", u.GoName, u.GoName)
	fmt.Fprintf(b, "\tvar zero %s\n", u.GoName)
	b.WriteString("\tid, err := r.Uint32()\n\tif err != nil {\n\t\treturn zero, err\n\t}\n\tswitch id {\n")
	for _, c := range u.Constructors {
		fmt.Fprintf(b, "\tcase id%s:\n", c.GoName)
		fmt.Fprintf(b, "\t\tv, err := decode%sFields(r)\n\t\tif err != nil {\n\t\t\treturn zero, err\n\t\t}\n", c.GoName)
		fmt.Fprintf(b, "\t\treturn %s{%s: &v}, nil\n", u.GoName, c.Variant)
	}
	b.WriteString("\tdefault:\n\t\treturn zero, tlcodec.NewUnexpectedConstructor(id)\n\t}\n}\n\n")
}

// renderConstructor emits a single record's struct, id constant, Encode
// method, and Decode/decodeFields pair.
func renderConstructor(b *strings.Builder, c *Constructor) {
	fmt.Fprintf(b, "const id%s uint32 = %#08x\n\n", c.GoName, c.Def.ID)

	if c.Variant == "" && c.ReturnGo != "" {
		replyType := c.ReturnGo
		if c.ReturnVec {
			replyType = "[]" + replyType
		}
		fmt.Fprintf(b, "// %s replies with %s.\n", c.GoName, replyType)
	}
	fmt.Fprintf(b, "type %s struct {\n", c.GoName)
	for _, f := range c.Fields {
		if f.Type.trueFlag {
			fmt.Fprintf(b, "\t%s bool\n", f.GoField)
			continue
		}
		fmt.Fprintf(b, "\t%s %s\n", f.GoField, goType(f.Type))
		if f.Optional {
			fmt.Fprintf(b, "\tHas%s bool\n", f.GoField)
		}
	}
	b.WriteString("}\n\n")

	renderEncode(b, c)
	renderDecodeFields(b, c)

	fmt.Fprintf(b, "func Decode%s(r *tlcodec.Reader) (%s, error) {\n", c.GoName, c.GoName)
	fmt.Fprintf(b, "\tvar zero %s\n", c.GoName)
	b.WriteString("\tid, err := r.Uint32()\n\tif err != nil {\n\t\treturn zero, err\n\t}\n")
	fmt.Fprintf(b, "\tif id != id%s {\n\t\treturn zero, tlcodec.NewUnexpectedConstructor(id)\n\t}\n", c.GoName)
	fmt.Fprintf(b, "\treturn decode%sFields(r)\n}\n\n", c.GoName)
}

func renderEncode(b *strings.Builder, c *Constructor) {
	fmt.Fprintf(b, "func (v %s) Encode(w *tlcodec.Writer) {\n", c.GoName)
	fmt.Fprintf(b, "\tw.PutUint32(id%s)\n", c.GoName)
	for _, it := range c.items {
		if it.flagWord != "" {
			fmt.Fprintf(b, "\tvar %s int32\n", flagVar(it.flagWord))
			for _, f := range c.Fields {
				if f.FlagWord != it.flagWord {
					continue
				}
				if f.Type.trueFlag {
					fmt.Fprintf(b, "\tif v.%s {\n\t\t%s |= 1 << %d\n\t}\n", f.GoField, flagVar(it.flagWord), f.FlagIndex)
				} else {
					fmt.Fprintf(b, "\tif v.Has%s {\n\t\t%s |= 1 << %d\n\t}\n", f.GoField, flagVar(it.flagWord), f.FlagIndex)
				}
			}
			fmt.Fprintf(b, "\tw.PutInt32(%s)\n", flagVar(it.flagWord))
			continue
		}
		f := it.field
		if f.Type.trueFlag {
			continue // carried entirely in the flags word above
		}
		stmt := encodeStmts("w", "v."+f.GoField, f.Type, 0)
		if f.Optional {
			fmt.Fprintf(b, "\tif v.Has%s {\n%s\t}\n", f.GoField, indentBlock(stmt, "\t\t"))
		} else {
			b.WriteString(indentBlock(stmt, "\t"))
		}
	}
	b.WriteString("}\n\n")
}

func renderDecodeFields(b *strings.Builder, c *Constructor) {
	fmt.Fprintf(b, "func decode%sFields(r *tlcodec.Reader) (%s, error) {\n", c.GoName, c.GoName)
	fmt.Fprintf(b, "\tvar zero %s\n\tvar v %s\n\t_ = zero\n", c.GoName, c.GoName)
	for _, it := range c.items {
		if it.flagWord != "" {
			fmt.Fprintf(b, "\t%s, err := r.Int32()\n\tif err != nil {\n\t\treturn zero, err\n\t}\n", flagVar(it.flagWord))
			continue
		}
		f := it.field
		if f.Type.trueFlag {
			fmt.Fprintf(b, "\tv.%s = %s&(1<<%d) != 0\n", f.GoField, flagVar(f.FlagWord), f.FlagIndex)
			continue
		}
		tmp := "val" + f.GoField
		stmt, _ := decodeExpr("r", f.Type, 0, tmp)
		if f.Optional {
			fmt.Fprintf(b, "\tif %s&(1<<%d) != 0 {\n", flagVar(f.FlagWord), f.FlagIndex)
			b.WriteString(indentBlock(stmt, "\t\t"))
			fmt.Fprintf(b, "\t\tv.%s = %s\n\t\tv.Has%s = true\n\t}\n", f.GoField, tmp, f.GoField)
		} else {
			b.WriteString(indentBlock(stmt, "\t"))
			fmt.Fprintf(b, "\tv.%s = %s\n", f.GoField, tmp)
		}
	}
	b.WriteString("\treturn v, nil\n}\n\n")
}

func flagVar(tlName string) string {
	return "flags" + PascalCase(tlName)
}

func renderNameTable(b *strings.Builder, s *Schema) {
	type entry struct {
		id   uint32
		name string
	}
	var all []entry
	for _, u := range s.Unions {
		for _, c := range u.Constructors {
			all = append(all, entry{c.Def.ID, c.Def.FullName()})
		}
	}
	for _, fn := range s.Functions {
		all = append(all, entry{fn.Def.ID, fn.Def.FullName()})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].id < all[j].id })

	b.WriteString("var nameByID = map[uint32]string{\n")
	for _, e := range all {
		fmt.Fprintf(b, "\t%#08x: %q,\n", e.id, e.name)
	}
	b.WriteString("}\n\n")
	b.WriteString("// NameForID returns the TL definition name for a constructor id, for logs\n")
	b.WriteString("// and error messages. It is not used on any decode path.\n")
	b.WriteString("func NameForID(id uint32) (string, bool) {\n\tname, ok := nameByID[id]\n\treturn name, ok\n}\n")
}
