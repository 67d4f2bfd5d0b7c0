package tlschema

import "strings"

// ParseFile parses a complete TL schema file, returning every definition it
// could parse plus one error per definition it could not.
//
// Lines starting with "//" are comments and are skipped. The
// "---functions---" and "---types---" section markers switch the Category
// applied to subsequent definitions. A definition may span multiple lines;
// it ends at the first line whose trimmed text ends with ';'.
func ParseFile(contents string) ([]Definition, []error) {
	var defs []Definition
	var errs []error

	category := CategoryType
	var pending strings.Builder

	for _, line := range strings.Split(contents, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}

		switch trimmed {
		case "---functions---":
			category = CategoryFunction
			continue
		case "---types---":
			category = CategoryType
			continue
		}

		pending.WriteByte(' ')
		pending.WriteString(trimmed)

		if !strings.HasSuffix(trimmed, ";") {
			continue
		}

		raw := strings.TrimSpace(pending.String())
		pending.Reset()
		raw = strings.TrimSpace(strings.TrimSuffix(raw, ";"))
		if raw == "" {
			continue
		}

		def, err := parseDefinition(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		def.Category = category
		defs = append(defs, def)
	}

	return defs, errs
}
