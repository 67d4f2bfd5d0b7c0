package tlschema

import "strings"

// parseType parses a TL type expression such as "ns.Vector<!X>" or "!X".
func parseType(raw string) (Type, error) {
	generic := false
	if rest, ok := strings.CutPrefix(raw, "!"); ok {
		raw, generic = rest, true
	}

	namePart := raw
	var arg *Type
	if idx := strings.Index(raw, "<"); idx >= 0 {
		if !strings.HasSuffix(raw, ">") {
			return Type{}, ErrInvalidGeneric
		}
		namePart = raw[:idx]
		inner, err := parseType(raw[idx+1 : len(raw)-1])
		if err != nil {
			return Type{}, err
		}
		arg = &inner
	}

	var namespace []string
	name := namePart
	if idx := strings.LastIndex(namePart, "."); idx >= 0 {
		namespace = strings.Split(namePart[:idx], ".")
		name = namePart[idx+1:]
	}
	for _, ns := range namespace {
		if ns == "" {
			return Type{}, ErrEmptyToken
		}
	}
	if name == "" {
		return Type{}, ErrEmptyToken
	}

	bare := name[0] >= 'a' && name[0] <= 'z'

	return Type{
		Namespace:  namespace,
		Name:       name,
		Bare:       bare,
		GenericRef: generic,
		GenericArg: arg,
	}, nil
}
