package tlschema

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"unicode"
)

// parseDefinition parses one complete TL definition such as
//
//	user#12345 id:long first_name:string = User;
//
// raw must already have its trailing ';' and surrounding whitespace
// stripped. The caller (ParseFile) sets the resulting Category.
func parseDefinition(raw string) (Definition, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Definition{}, ErrEmptyDefinition
	}

	lhs, tyStr, ok := strings.Cut(raw, "=")
	if !ok {
		return Definition{}, ErrMissingType
	}
	lhs = strings.TrimSpace(lhs)
	tyStr = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(tyStr), ";"))
	if tyStr == "" {
		return Definition{}, ErrMissingType
	}

	ty, err := parseType(tyStr)
	if err != nil {
		return Definition{}, ErrMissingType
	}

	head, rest := lhs, ""
	if idx := strings.IndexFunc(lhs, unicode.IsSpace); idx >= 0 {
		head = strings.TrimSpace(lhs[:idx])
		rest = strings.TrimSpace(lhs[idx:])
	}

	fullName := head
	var explicitID string
	hasID := false
	if name, idHex, ok := strings.Cut(head, "#"); ok {
		fullName, explicitID, hasID = name, idHex, true
	}

	var namespace []string
	name := fullName
	if idx := strings.LastIndex(fullName, "."); idx >= 0 {
		namespace = strings.Split(fullName[:idx], ".")
		name = fullName[idx+1:]
	}
	for _, ns := range namespace {
		if ns == "" {
			return Definition{}, ErrMissingName
		}
	}
	if name == "" {
		return Definition{}, ErrMissingName
	}

	var id uint32
	if hasID {
		id64, err := strconv.ParseUint(strings.TrimSpace(explicitID), 16, 32)
		if err != nil {
			return Definition{}, &InvalidIDError{Hex: explicitID, Err: err}
		}
		id = uint32(id64)
	} else {
		id = computeID(raw)
	}

	var typeDefs, flagDefs []string
	var params []Parameter
	for _, token := range strings.Fields(rest) {
		p, err := parseParameter(token)
		if err != nil {
			var sig *typeDefSignal
			if errors.As(err, &sig) {
				typeDefs = append(typeDefs, sig.name)
				continue
			}
			return Definition{}, err
		}

		if p.Type.Kind == ParamFlags {
			flagDefs = append(flagDefs, p.Name)
		} else if p.Type.Type.GenericRef && !slices.Contains(typeDefs, p.Type.Type.Name) {
			return Definition{}, ErrMissingDef
		} else if p.Type.Flag != nil && !slices.Contains(flagDefs, p.Type.Flag.Name) {
			return Definition{}, ErrMissingDef
		}

		params = append(params, p)
	}

	if slices.Contains(typeDefs, ty.Name) {
		ty.GenericRef = true
	}

	return Definition{
		Namespace: namespace,
		Name:      name,
		ID:        id,
		Params:    params,
		Type:      ty,
		Category:  CategoryType,
	}, nil
}
