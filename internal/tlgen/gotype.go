package tlgen

import "fmt"

// goType renders ft as it appears in a Go struct field declaration.
func goType(ft fieldType) string {
	switch {
	case ft.trueFlag:
		return "bool"
	case ft.vector:
		return "[]" + goType(*ft.elem)
	case ft.scalarName != "":
		return scalars[ft.scalarName].goType
	default:
		return ft.boxedGo
	}
}

// encodeStmts writes the Go statements that serialize valueExpr (of type
// ft) onto writer w. depth disambiguates loop variable names for nested
// vectors, which TL schemas never produce in practice but the generator
// handles anyway rather than assuming.
func encodeStmts(w, valueExpr string, ft fieldType, depth int) string {
	switch {
	case ft.vector:
		loopVar := fmt.Sprintf("item%d", depth)
		inner := encodeStmts(w, loopVar, *ft.elem, depth+1)
		return fmt.Sprintf("%s.VectorHeader(len(%s))\n\tfor _, %s := range %s {\n\t%s\n\t}\n",
			w, valueExpr, loopVar, valueExpr, indentBlock(inner, "\t"))
	case ft.scalarName != "":
		return fmt.Sprintf("%s.Put%s(%s)\n", w, scalars[ft.scalarName].put, valueExpr)
	case ft.trueFlag:
		return "" // presence is carried entirely by the flags word, no bytes of its own
	default:
		return fmt.Sprintf("%s.Encode(%s)\n", valueExpr, w)
	}
}

// decodeExpr returns the Go statements that read one value of type ft from
// reader r into tmpVar, each read followed by its error check, and reports
// whether any statements were produced (false only for a true flag). Boxed
// references decode through the union's DecodeX function, which already
// reads the leading constructor id.
func decodeExpr(r string, ft fieldType, depth int, tmpVar string) (stmts string, errOK bool) {
	switch {
	case ft.trueFlag:
		return "", false
	case ft.vector:
		count := fmt.Sprintf("n%d", depth)
		loopVar := fmt.Sprintf("i%d", depth)
		elemVar := fmt.Sprintf("elem%d", depth)
		elemStmts, _ := decodeExpr(r, *ft.elem, depth+1, elemVar)
		var b string
		b += fmt.Sprintf("%s, err := %s.VectorHeader()\n", count, r)
		b += "if err != nil {\n\treturn zero, err\n}\n"
		b += fmt.Sprintf("%s := make([]%s, 0, %s)\n", tmpVar, goType(*ft.elem), count)
		b += fmt.Sprintf("for %s := 0; %s < %s; %s++ {\n", loopVar, loopVar, count, loopVar)
		b += indentBlock(elemStmts, "\t")
		b += fmt.Sprintf("\t%s = append(%s, %s)\n", tmpVar, tmpVar, elemVar)
		b += "}\n"
		return b, true
	case ft.scalarName != "":
		return fmt.Sprintf("%s, err := %s.%s()\nif err != nil {\n\treturn zero, err\n}\n", tmpVar, r, scalars[ft.scalarName].get), true
	default:
		return fmt.Sprintf("%s, err := Decode%s(%s)\nif err != nil {\n\treturn zero, err\n}\n", tmpVar, ft.boxedGo, r), true
	}
}

func indentBlock(s, prefix string) string {
	if s == "" {
		return s
	}
	out := ""
	for _, line := range splitLines(s) {
		if line == "" {
			out += "\n"
			continue
		}
		out += prefix + line + "\n"
	}
	return out
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i, c := range s {
		if c == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
