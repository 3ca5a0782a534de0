package core

import (
	"slices"
	"testing"

	"variantcore/pkg/domain"
)

func TestPluginRegistryStrategies(t *testing.T) {
	r := NewPluginRegistry()
	cfg := CategoryConfig{"watts_per_area": absolute(4)}
	if err := r.RegisterStrategy(domain.CategoryLighting, "night_setback", cfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	cfg["watts_per_area"] = absolute(99)
	if got := r.strategies[domain.CategoryLighting]["night_setback"]["watts_per_area"]; !(*got.Value).Equal(domain.Number(4)) {
		t.Fatalf("registered preset must be copied, got %v", *got.Value)
	}

	cases := []struct {
		name     string
		category Category
		preset   string
	}{
		{"duplicate", domain.CategoryLighting, "night_setback"},
		{"reserved", domain.CategoryLighting, defaultStrategy},
		{"missing name", domain.CategoryLighting, ""},
		{"missing category", "", "night_setback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := r.RegisterStrategy(tc.category, tc.preset, nil); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if got := r.Strategies()[domain.CategoryLighting]; !slices.Equal(got, []string{"night_setback"}) {
		t.Fatalf("unexpected strategies %v", got)
	}
}

func TestPluginRegistryModifiersAndParameters(t *testing.T) {
	r := NewPluginRegistry()
	if err := r.RegisterModifier(domain.CategoryDHW, NewDHWModifier); err != nil {
		t.Fatalf("register modifier: %v", err)
	}
	if err := r.RegisterModifier(domain.CategoryDHW, NewDHWModifier); err == nil {
		t.Fatalf("expected duplicate modifier error")
	}
	if err := r.RegisterModifier(domain.CategoryDHW, nil); err == nil {
		t.Fatalf("expected nil factory error")
	}

	if err := r.RegisterParameters(Catalog{Category: domain.CategoryLighting}); err == nil {
		t.Fatalf("expected empty catalog error")
	}
	if err := r.RegisterParameters(Catalog{Definitions: []ParameterDefinition{FloatParameter("x", ObjectLights, "X", "", nil, nil, performanceLow)}}); err == nil {
		t.Fatalf("expected missing category error")
	}
	defs := []ParameterDefinition{FloatParameter("dimming_level", ObjectLights, "Dimming Level", "", Bound(0), Bound(1), performanceLow)}
	if err := r.RegisterParameters(Catalog{Category: domain.CategoryLighting, Definitions: defs}); err != nil {
		t.Fatalf("register parameters: %v", err)
	}
	defs[0].Key = "mutated"
	if got := r.Catalogs()[0].Definitions[0].Key; got != "dimming_level" {
		t.Fatalf("registered catalog must be copied, got %s", got)
	}

	r.RegisterRule(nil)
	r.RegisterRule(NewCOPCeilingRule())
	meta := r.metadata(testPlugin{name: "kit"})
	if meta.Name != "kit" || meta.Version != "test" {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if !slices.Equal(meta.Modifiers, []Category{domain.CategoryDHW}) || !slices.Equal(meta.Rules, []string{"cop_ceiling"}) {
		t.Fatalf("unexpected metadata %+v", meta)
	}
	if !slices.Equal(meta.Parameters[domain.CategoryLighting], []string{"dimming_level"}) {
		t.Fatalf("unexpected parameters %+v", meta.Parameters)
	}
}

func TestPluginModifierReplacesBuiltin(t *testing.T) {
	var built int
	plugin := testPlugin{name: "dhw", register: func(r *PluginRegistry) error {
		return r.RegisterModifier(domain.CategoryDHW, func(deps ModifierDeps) Modifier {
			built++
			return NewDHWModifier(deps)
		})
	}}
	svc := mustService(t, WithPlugins(plugin))
	svc.NewModifierSet(1)
	if built != 1 {
		t.Fatalf("expected plugin factory to be used once, got %d", built)
	}
}
