package tlschema

import "testing"

func TestComputeIDKnownValue(t *testing.T) {
	t.Parallel()

	// boolFalse#bc799737 = Bool — id must match when no #id is given.
	if got := computeID("boolFalse = Bool"); got != 0xbc799737 {
		t.Fatalf("computeID() = %#x, want 0xbc799737", got)
	}
}

func TestParseFileSimpleConstructor(t *testing.T) {
	t.Parallel()

	defs, errs := ParseFile("user#12345 id:long first_name:string = User;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(defs) != 1 {
		t.Fatalf("len(defs) = %d, want 1", len(defs))
	}

	d := defs[0]
	if d.Name != "user" || d.ID != 0x12345 || d.Type.Name != "User" {
		t.Fatalf("unexpected definition: %+v", d)
	}
	if len(d.Params) != 2 {
		t.Fatalf("len(Params) = %d, want 2", len(d.Params))
	}
	if d.Params[0].Name != "id" || d.Params[0].Type.Type.Name != "long" {
		t.Fatalf("unexpected param 0: %+v", d.Params[0])
	}
	if d.Category != CategoryType {
		t.Fatalf("Category = %v, want CategoryType", d.Category)
	}
}

func TestParseFileFunctionsSection(t *testing.T) {
	t.Parallel()

	src := `
// comment
boolFalse = Bool;
---functions---
help.getConfig#c4f9186b = Config;
`
	defs, errs := ParseFile(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(defs) != 2 {
		t.Fatalf("len(defs) = %d, want 2", len(defs))
	}
	if defs[0].Category != CategoryType {
		t.Fatalf("defs[0].Category = %v, want CategoryType", defs[0].Category)
	}
	if defs[1].Category != CategoryFunction {
		t.Fatalf("defs[1].Category = %v, want CategoryFunction", defs[1].Category)
	}
	if defs[1].FullName() != "help.getConfig" {
		t.Fatalf("FullName() = %q, want help.getConfig", defs[1].FullName())
	}
}

func TestParseFileFlagGuardedParameter(t *testing.T) {
	t.Parallel()

	defs, errs := ParseFile("inputMediaPhoto#b3ba0635 flags:# spoiler:flags.0?true id:InputPhoto = InputMedia;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	d := defs[0]
	if len(d.Params) != 3 {
		t.Fatalf("len(Params) = %d, want 3 (flags, spoiler, id)", len(d.Params))
	}
	if d.Params[0].Type.Kind != ParamFlags {
		t.Fatalf("Params[0].Type.Kind = %v, want ParamFlags", d.Params[0].Type.Kind)
	}
	spoiler := d.Params[1]
	if spoiler.Type.Flag == nil || spoiler.Type.Flag.Name != "flags" || spoiler.Type.Flag.Index != 0 {
		t.Fatalf("unexpected spoiler flag: %+v", spoiler.Type.Flag)
	}
}

func TestParseFileGenericVectorParameter(t *testing.T) {
	t.Parallel()

	defs, errs := ParseFile("messages.getMessages#63c66506 {X:Type} id:Vector<!X> = messages.Messages;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	d := defs[0]
	if len(d.Params) != 1 {
		t.Fatalf("len(Params) = %d, want 1", len(d.Params))
	}
	arg := d.Params[0].Type.Type.GenericArg
	if arg == nil || !arg.GenericRef || arg.Name != "X" {
		t.Fatalf("unexpected generic argument: %+v", arg)
	}
}

func TestParseFileUndeclaredGenericFails(t *testing.T) {
	t.Parallel()

	// "!X" is a direct generic reference with no preceding "{X:Type}"
	// declaration, so it must be rejected.
	_, errs := ParseFile("bad id:!X = Bad;")
	if len(errs) != 1 {
		t.Fatalf("len(errs) = %d, want 1", len(errs))
	}
}

func TestParseFileMultilineDefinition(t *testing.T) {
	t.Parallel()

	src := "user#12345 id:long\n  first_name:string\n  = User;"
	defs, errs := ParseFile(src)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(defs) != 1 || len(defs[0].Params) != 2 {
		t.Fatalf("unexpected result: %+v", defs)
	}
}

func TestParseTypeWithNamespace(t *testing.T) {
	t.Parallel()

	ty, err := parseType("upload.File")
	if err != nil {
		t.Fatalf("parseType() error = %v", err)
	}
	if len(ty.Namespace) != 1 || ty.Namespace[0] != "upload" || ty.Name != "File" {
		t.Fatalf("unexpected type: %+v", ty)
	}
	if ty.Bare {
		t.Fatalf("Bare = true, want false for capitalized name")
	}
}

func TestParameterStringRoundTrip(t *testing.T) {
	t.Parallel()

	defs, errs := ParseFile("user#12345 id:long first_name:string = User;")
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	got := defs[0].Params[0].String()
	if got != "id:long" {
		t.Fatalf("Parameter.String() = %q, want id:long", got)
	}
}
