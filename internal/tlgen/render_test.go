package tlgen

import (
	"strings"
	"testing"

	"github.com/ankit-chaubey/layer/internal/tlschema"
)

const testSchema = `
user#d3bc4b7a flags:# id:long access_hash:flags.0?long verified:flags.1?true = User;
userEmpty#2bb6e6c1 id:long = User;

---functions---

users.getUsers#0d91a548 id:Vector<long> = Vector<User>;
`

func parseOrFail(t *testing.T, src string) []tlschema.Definition {
	t.Helper()
	defs, errs := tlschema.ParseFile(src)
	if len(errs) != 0 {
		t.Fatalf("ParseFile() errs = %v", errs)
	}
	return defs
}

func TestGenerateProducesExpectedShapes(t *testing.T) {
	defs := parseOrFail(t, testSchema)
	schema := Build(defs)

	if len(schema.Unions) != 1 {
		t.Fatalf("len(Unions) = %d, want 1", len(schema.Unions))
	}
	if len(schema.Functions) != 1 {
		t.Fatalf("len(Functions) = %d, want 1", len(schema.Functions))
	}

	out, err := Generate(schema, Options{Package: "generated", EmitNameTable: true})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, want := range []string{
		"package generated",
		"type User struct", // the union wrapper; its sole same-named constructor is renamed UserValue below
		"type UserValue struct",
		"type UserEmpty struct",
		"type UsersGetUsers struct",
		"func (v User) Encode(w *tlcodec.Writer)",
		"func DecodeUser(r *tlcodec.Reader) (User, error)",
		"idUserValue uint32 = 0xd3bc4b7a",
		"idUserEmpty uint32 = 0x2bb6e6c1",
		"func NameForID(id uint32) (string, bool)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated source missing %q\n--- output ---\n%s", want, out)
		}
	}
}

func TestVariantNamingStripsUnionPrefix(t *testing.T) {
	defs := parseOrFail(t, testSchema)
	schema := Build(defs)
	u := schema.Unions[0]

	variants := map[string]bool{}
	for _, c := range u.Constructors {
		variants[c.Variant] = true
	}
	if !variants["Empty"] {
		t.Fatalf("variants = %v, want one named Empty (UserEmpty minus User prefix)", variants)
	}
}

func TestPascalCaseCompressesAcronymRuns(t *testing.T) {
	cases := map[string]string{
		"some_OK_name": "SomeOkName",
		"first_name":   "FirstName",
		"id":           "Id",
		"access_hash":  "AccessHash",
	}
	for in, want := range cases {
		if got := PascalCase(in); got != want {
			t.Errorf("PascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTrueFlagFieldBecomesPlainBool(t *testing.T) {
	defs := parseOrFail(t, testSchema)
	schema := Build(defs)
	u := schema.Unions[0]

	var user *Constructor
	for _, c := range u.Constructors {
		if c.GoName == "UserValue" { // renamed from "User" to avoid colliding with the union's own name
			user = c
		}
	}
	if user == nil {
		t.Fatal("User constructor not found")
	}
	if user.Variant != "Value" {
		t.Fatalf("Variant = %s, want Value (stripped \"User\" prefix from \"UserValue\")", user.Variant)
	}
	for _, f := range user.Fields {
		if f.TLName == "verified" {
			if !f.Type.trueFlag {
				t.Fatal("verified field should resolve to trueFlag")
			}
			if goType(f.Type) != "bool" {
				t.Fatalf("goType(verified) = %s, want bool", goType(f.Type))
			}
		}
	}
}

func TestFunctionReturnTypeIsRecorded(t *testing.T) {
	defs := parseOrFail(t, testSchema)
	schema := Build(defs)
	fn := schema.Functions[0]
	if fn.ReturnGo != "User" || !fn.ReturnVec {
		t.Fatalf("fn.ReturnGo=%s ReturnVec=%v, want User/true", fn.ReturnGo, fn.ReturnVec)
	}
}
