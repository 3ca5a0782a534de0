package domain

import (
	"encoding/json"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestValueJSONKeepsKind(t *testing.T) {
	type doc struct {
		A Value `json:"a"`
		B Value `json:"b"`
	}
	raw, err := json.Marshal(doc{A: Number(1.5), B: Text("Smooth")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"a":1.5,"b":"Smooth"}` {
		t.Fatalf("unexpected encoding %s", raw)
	}
	var back doc
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.A.IsNumber() || back.B.IsNumber() {
		t.Fatalf("kinds not preserved: %+v", back)
	}
	if err := json.Unmarshal([]byte(`{"a":true}`), &back); err == nil {
		t.Fatalf("expected error for boolean value")
	}
}

func TestValueYAMLScalars(t *testing.T) {
	var got []Value
	if err := yaml.Unmarshal([]byte("[3, 0.25, Balanced, true]"), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []Value{Number(3), Number(0.25), Text("Balanced"), Text("true")}
	if len(got) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(got))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("value %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestValueFloat(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"number", Number(2), 2, true},
		{"numeric text", Text(" 0.35 "), 0.35, true},
		{"word", Text("Rough"), 0, false},
		{"nan text", Text("NaN"), 0, false},
		{"inf text", Text("+Inf"), 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := tc.v.Float()
			if ok != tc.ok || got != tc.want {
				t.Fatalf("expected (%g,%v), got (%g,%v)", tc.want, tc.ok, got, ok)
			}
		})
	}
	if Number(1).Equal(Text("1")) {
		t.Fatalf("numbers and text must not compare equal")
	}
}

func TestFieldRefForms(t *testing.T) {
	name := ByName("Watts per Zone Floor Area")
	if n, ok := name.Name(); !ok || n != "Watts per Zone Floor Area" {
		t.Fatalf("unexpected name ref %v", name)
	}
	if _, ok := name.Index(); ok {
		t.Fatalf("name ref must not report an index")
	}
	idx := ByIndex(2)
	if i, ok := idx.Index(); !ok || i != 2 || idx.String() != "#2" {
		t.Fatalf("unexpected index ref %v", idx)
	}
	if !(FieldRef{}).IsZero() || idx.IsZero() || name.IsZero() {
		t.Fatalf("IsZero mismatch")
	}
	if !name.Matches(Field{Name: "  watts PER zone   floor area"}) {
		t.Fatalf("expected normalized name match")
	}
	if idx.Matches(Field{Index: 3}) || !idx.Matches(Field{Index: 2}) {
		t.Fatalf("index match mismatch")
	}
}

func TestNormalizeKey(t *testing.T) {
	if got := NormalizeKey("  Fraction \t Radiant "); got != "fraction_radiant" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestParameterDefinitionClone(t *testing.T) {
	def := ParameterDefinition{
		Key:           "roughness",
		Min:           Bound(1),
		Max:           Bound(2),
		AllowedValues: []Value{Text("Rough")},
		DependsOn:     []string{"thickness"},
	}
	cp := def.Clone()
	*cp.Min = 5
	cp.AllowedValues[0] = Text("Smooth")
	cp.DependsOn[0] = "density"
	if *def.Min != 1 || def.AllowedValues[0].String() != "Rough" || def.DependsOn[0] != "thickness" {
		t.Fatalf("clone shares state with original: %+v", def)
	}
	if !DataTypeInteger.Numeric() || DataTypeEnum.Numeric() {
		t.Fatalf("numeric classification mismatch")
	}
}
