package tlschema

import (
	"strconv"
	"strings"
)

// parseParameter parses a single parameter token such as "flags:#",
// "id:long", or "photo:flags.0?InputPhoto".
//
// A token of the form "{X:Type}" declares a generic type parameter rather
// than a real parameter; parseParameter signals this with a *typeDefSignal
// error so parseDefinition can record the generic name and move on.
func parseParameter(token string) (Parameter, error) {
	if inner, ok := strings.CutPrefix(token, "{"); ok {
		name, ok := strings.CutSuffix(inner, ":Type}")
		if !ok {
			return Parameter{}, ErrMissingDef
		}
		return Parameter{}, &typeDefSignal{name: name}
	}

	name, tyStr, ok := strings.Cut(token, ":")
	if !ok {
		return Parameter{}, ErrNotImplemented
	}
	if name == "" || tyStr == "" {
		return Parameter{}, ErrEmptyToken
	}

	pt, err := parseParameterType(tyStr)
	if err != nil {
		return Parameter{}, err
	}
	return Parameter{Name: name, Type: pt}, nil
}

func parseParameterType(s string) (ParameterType, error) {
	if s == "#" {
		return ParameterType{Kind: ParamFlags}, nil
	}

	if flagPart, tyPart, ok := strings.Cut(s, "?"); ok {
		flagName, flagIdxStr, ok := strings.Cut(flagPart, ".")
		if !ok || flagName == "" || flagIdxStr == "" {
			return ParameterType{}, ErrInvalidFlag
		}
		index64, err := strconv.ParseUint(flagIdxStr, 10, 32)
		if err != nil {
			return ParameterType{}, ErrInvalidFlag
		}
		index := uint32(index64)
		ty, err := parseType(tyPart)
		if err != nil {
			return ParameterType{}, err
		}
		return ParameterType{
			Kind: ParamNormal,
			Type: ty,
			Flag: &Flag{Name: flagName, Index: index},
		}, nil
	}

	if strings.Contains(s, "?") {
		return ParameterType{}, ErrInvalidFlag
	}

	ty, err := parseType(s)
	if err != nil {
		return ParameterType{}, err
	}
	return ParameterType{Kind: ParamNormal, Type: ty}, nil
}

