// Package tlgen turns a parsed TL schema (internal/tlschema) into Go source:
// one struct per constructor, one tagged union per boxed type, and one
// struct per RPC function, all wired to internal/tlcodec for encoding.
package tlgen

import (
	"strings"
	"unicode"
)

// pascalWord title-cases a single underscore-free token. A token that is
// entirely uppercase (an acronym such as "OK" or "ID") is compressed to a
// single capital followed by lowercase, matching Go's exported-name style;
// anything else just gets its leading rune capitalized.
func pascalWord(w string) string {
	if w == "" {
		return ""
	}
	r := []rune(w)
	upperRun := 0
	for upperRun < len(r) && unicode.IsUpper(r[upperRun]) {
		upperRun++
	}
	if upperRun == len(r) && upperRun >= 2 {
		return string(unicode.ToUpper(r[0])) + strings.ToLower(string(r[1:]))
	}
	return string(unicode.ToUpper(r[0])) + string(r[1:])
}

// PascalCase converts a TL identifier such as "some_OK_name" or
// "first_name" into a Go-style exported identifier: "SomeOkName",
// "FirstName".
func PascalCase(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		b.WriteString(pascalWord(part))
	}
	return b.String()
}

// GoName renders a namespaced TL definition name ("messages.sendMessage")
// as a single flat exported Go identifier ("MessagesSendMessage"),
// avoiding collisions between identically named constructors in different
// namespaces.
func GoName(namespace []string, name string) string {
	var b strings.Builder
	for _, ns := range namespace {
		b.WriteString(PascalCase(ns))
	}
	b.WriteString(PascalCase(name))
	return b.String()
}

// VariantName derives a tagged-union field name for a constructor by
// stripping its boxed type's name as a leading prefix, e.g. constructor
// "UpdatesDifferenceEmpty" of boxed type "UpdatesDifference" becomes
// "Empty". If stripping would leave an empty or digit-leading remainder
// the full constructor name is used instead, so the field stays a valid,
// unambiguous Go identifier.
func VariantName(ctorGoName, boxedGoName string) string {
	rest := strings.TrimPrefix(ctorGoName, boxedGoName)
	if rest == "" {
		return ctorGoName
	}
	if rest[0] >= '0' && rest[0] <= '9' {
		return ctorGoName
	}
	return rest
}

// SafeFieldName maps a TL parameter name to an exported Go field name.
// Exported Go identifiers are capitalized and Go's reserved words are all
// lowercase, so PascalCase alone already avoids keyword collisions; this
// wrapper exists as the single place that rule lives, in case a future
// schema parameter ever needs a different fallback.
func SafeFieldName(name string) string {
	g := PascalCase(name)
	if g == "" {
		return "Field"
	}
	return g
}
