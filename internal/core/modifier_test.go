package core

import (
	"context"
	"math"
	"slices"
	"strings"
	"testing"
	"time"

	"variantcore/pkg/domain"
)

func applyOne(t *testing.T, mod Modifier, graph RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	t.Helper()
	return mod.Apply(context.Background(), graph, cfg, strategy)
}

func TestGeometryRejectsWindowMultiplierBelowOne(t *testing.T) {
	window := record(ObjectFenestrationSurface, "south_window", numField("Multiplier", 10, 1))
	mod := newTestModifier(t, NewGeometryModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(window), CategoryConfig{windowMultiplierKey: absoluteCfg(0.5)}, "")
	if len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
	r := results[0]
	if r.Success || r.ValidationStatus != domain.StatusInvalid || r.Rule != "window_multiplier_minimum" {
		t.Fatalf("expected rule rejection, got %+v", r)
	}
	if !r.OriginalValue.Equal(domain.Number(1)) || !r.NewValue.Equal(domain.Number(0.5)) {
		t.Fatalf("unexpected values %v -> %v", r.OriginalValue, r.NewValue)
	}
	if got := fieldRaw(t, window, "Multiplier"); got != "1" {
		t.Fatalf("rejected change must not be written, got %s", got)
	}
}

func TestGeometryRoundsZoneMultiplierAndClampsHeight(t *testing.T) {
	zone := record(ObjectZone, "core", numField("Multiplier", 9, 2), numField("Ceiling Height", 10, 3))
	mod := newTestModifier(t, NewGeometryModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(zone), CategoryConfig{
		"zone_multiplier": factorCfg(1.3),
		"ceiling_height":  absoluteCfg(10),
	}, "")
	if len(results) != 2 {
		t.Fatalf("expected two results, got %+v", results)
	}
	for _, r := range results {
		if !r.Success {
			t.Fatalf("unexpected failure %+v", r)
		}
	}
	if got := fieldRaw(t, zone, "Multiplier"); got != "3" {
		t.Fatalf("expected rounded multiplier 3, got %s", got)
	}
	if got := fieldRaw(t, zone, "Ceiling Height"); got != "6" {
		t.Fatalf("expected clamped height 6, got %s", got)
	}
	if !strings.Contains(results[1].Message, "clamped 10 to maximum 6") {
		t.Fatalf("expected clamp note, got %q", results[1].Message)
	}
}

func TestVentilationDiscreteChoice(t *testing.T) {
	vent := record(ObjectZoneVentilation, "zone_vent", textField("Ventilation Type", 5, "Natural"))
	mod := newTestModifier(t, NewVentilationModifier, NewRulesEngine(), nil)

	cfg := CategoryConfig{"ventilation_type": choice(ventilationTypeExhaust, ventilationTypeBalanced)}
	results := applyOne(t, mod, graphOf(vent), cfg, "")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if got := fieldRaw(t, vent, "Ventilation Type"); got != ventilationTypeBalanced {
		t.Fatalf("expected %s, got %s", ventilationTypeBalanced, got)
	}
	if vent.Fields[0].Numeric != nil {
		t.Fatalf("textual value must clear the numeric cache")
	}
}

func lightsRecord() *ParsedRecord {
	return record(ObjectLights, "office_lights",
		numField("Watts per Zone Floor Area", 5, 10),
		numField("Return Air Fraction", 6, 0.3),
		numField("Fraction Radiant", 7, 0.4),
		numField("Fraction Visible", 8, 0.2),
	)
}

func TestLightingFractionSumRejectsEveryChangeOnRecord(t *testing.T) {
	lights := lightsRecord()
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{
		lightingFractionRadiant: absoluteCfg(0.7),
		"watts_per_area":        factorCfg(0.9),
	}, "")
	if len(results) != 2 {
		t.Fatalf("expected two results, got %+v", results)
	}
	for _, r := range results {
		if r.Success || r.Rule != "lighting_fraction_sum" {
			t.Fatalf("expected record-wide rejection, got %+v", r)
		}
		if !strings.Contains(r.Message, "change blocked by rule lighting_fraction_sum: ") {
			t.Fatalf("expected rule violation text, got %q", r.Message)
		}
	}
	if got := fieldRaw(t, lights, "Watts per Zone Floor Area"); got != "10" {
		t.Fatalf("watts must be untouched, got %s", got)
	}
	if got := fieldRaw(t, lights, "Fraction Radiant"); got != "0.4" {
		t.Fatalf("radiant fraction must be untouched, got %s", got)
	}
}

func TestLightingAcceptsFractionsWithinSum(t *testing.T) {
	lights := lightsRecord()
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{lightingFractionRadiant: absoluteCfg(0.5)}, "")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if got := fieldRaw(t, lights, "Fraction Radiant"); got != "0.5" {
		t.Fatalf("expected 0.5, got %s", got)
	}
}

func TestUnknownParameterYieldsErrorResult(t *testing.T) {
	lights := lightsRecord()
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{"lumens": absoluteCfg(1)}, "")
	if len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
	r := results[0]
	if r.ValidationStatus != domain.StatusError || r.Parameter != "lumens" {
		t.Fatalf("unexpected result %+v", r)
	}
	if !strings.Contains(r.Message, domain.ErrUnknownParameter.Error()) {
		t.Fatalf("expected unknown parameter message, got %q", r.Message)
	}
}

func TestDisabledEntriesAreSkipped(t *testing.T) {
	lights := lightsRecord()
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)
	off := false
	cfg := absoluteCfg(4)
	cfg.Enabled = &off

	if results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": cfg}, ""); len(results) != 0 {
		t.Fatalf("expected no results, got %+v", results)
	}
}

func TestNumericCacheWinsOverRaw(t *testing.T) {
	cached := 10.0
	lights := record(ObjectLights, "office_lights", domain.Field{Name: "Watts per Zone Floor Area", Index: 5, Raw: "12", Numeric: &cached})
	log := &captureLogger{}
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), log)

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": factorCfg(1)}, "")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if !results[0].OriginalValue.Equal(domain.Number(10)) {
		t.Fatalf("expected numeric original 10, got %v", results[0].OriginalValue)
	}
	if !strings.Contains(results[0].Message, "disagrees") {
		t.Fatalf("expected discrepancy note, got %q", results[0].Message)
	}
	if !log.has("warn", "numeric cache disagrees with raw value") {
		t.Fatalf("expected discrepancy warning")
	}
}

func TestIdentifyModifiableParameters(t *testing.T) {
	lights := lightsRecord()
	lights.Fields = append(lights.Fields, textField("Schedule Name", 3, "always_on"), textField("Fraction Replaceable", 9, ""))
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)

	matches := mod.IdentifyModifiableParameters(graphOf(lights))[ObjectLights]
	var keys []string
	for _, m := range matches {
		keys = append(keys, m.Definition.Key)
	}
	want := []string{"watts_per_area", lightingReturnAirFraction, lightingFractionRadiant, lightingFractionVisible}
	if !slices.Equal(keys, want) {
		t.Fatalf("expected %v, got %v", want, keys)
	}
	if !slices.Contains(mod.ModifiableObjectTypes(), ObjectLights) {
		t.Fatalf("lights must be modifiable, got %v", mod.ModifiableObjectTypes())
	}
}

func TestStrategyPresetAndOverlay(t *testing.T) {
	deps := ModifierDeps{
		Registry:   builtinRegistry(t),
		Calculator: NewCalculator(fixedSource{f: 0.5}),
		Rules:      NewRulesEngine(),
		Presets:    BuiltinStrategies()[domain.CategoryLighting],
	}
	mod := NewLightingModifier(deps)
	if got := mod.Strategies(); !slices.Equal(got, []string{defaultStrategy, StrategyHighEfficiency}) {
		t.Fatalf("unexpected strategies %v", got)
	}

	lights := lightsRecord()
	results := applyOne(t, mod, graphOf(lights), nil, StrategyHighEfficiency)
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected preset result, got %+v", results)
	}
	if got, _ := results[0].NewValue.Float(); math.Abs(got-6.5) > 1e-9 {
		t.Fatalf("expected midpoint of preset range, got %g", got)
	}

	lights = lightsRecord()
	results = applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": absoluteCfg(3)}, StrategyHighEfficiency)
	if len(results) != 1 || !results[0].NewValue.Equal(domain.Number(3)) {
		t.Fatalf("configuration must override preset, got %+v", results)
	}
}

func TestUnknownStrategyAppliesConfigurationOnly(t *testing.T) {
	log := &captureLogger{}
	mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), log)
	lights := lightsRecord()

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": absoluteCfg(8)}, "imaginary")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected configuration result, got %+v", results)
	}
	if !log.has("warn", "unknown strategy, applying configuration only") {
		t.Fatalf("expected unknown strategy warning")
	}
}

func TestEnvelopeBlocksConductivityButKeepsThickness(t *testing.T) {
	material := record(ObjectMaterial, "insulation",
		textField("Roughness", 1, "Rough"),
		numField("Thickness", 2, 0.1),
		numField("Conductivity", 3, 0.04),
	)
	mod := newTestModifier(t, NewEnvelopeModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(material), CategoryConfig{
		materialConductivityKey: absoluteCfg(0.0005),
		"thickness":             factorCfg(2),
	}, "")
	if len(results) != 2 {
		t.Fatalf("expected two results, got %+v", results)
	}
	byParam := map[string]ModificationResult{}
	for _, r := range results {
		byParam[r.Parameter] = r
	}
	if r := byParam[materialConductivityKey]; r.Success || r.Rule != "conductivity_floor" {
		t.Fatalf("expected conductivity rejection, got %+v", r)
	}
	if r := byParam["thickness"]; !r.Success {
		t.Fatalf("expected thickness accepted, got %+v", r)
	}
	if got := fieldRaw(t, material, "Thickness"); got != "0.2" {
		t.Fatalf("expected thickness 0.2, got %s", got)
	}
	if got := fieldRaw(t, material, "Conductivity"); got != "0.04" {
		t.Fatalf("conductivity must be untouched, got %s", got)
	}
}

func TestEnvelopeRejectsUnknownRoughness(t *testing.T) {
	material := record(ObjectMaterial, "brick", textField("Roughness", 1, "Rough"))
	mod := newTestModifier(t, NewEnvelopeModifier, NewRulesEngine(), nil)
	value := domain.Text("Glassy")
	cfg := domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodAbsolute, Value: &value}}

	results := applyOne(t, mod, graphOf(material), CategoryConfig{"roughness": cfg}, "")
	if len(results) != 1 || results[0].ValidationStatus != domain.StatusInvalid {
		t.Fatalf("expected invalid result, got %+v", results)
	}
}

func TestHVACRejectsUnrealisticCOP(t *testing.T) {
	coil := record(ObjectCoolingCoilDX, "dx_coil", numField("Gross Rated Cooling COP", 4, 3))
	mod := newTestModifier(t, NewHVACModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(coil), CategoryConfig{coolingCOPKey: factorCfg(4)}, "")
	if len(results) != 1 || results[0].Success || results[0].Rule != "cop_ceiling" {
		t.Fatalf("expected cop rejection, got %+v", results)
	}
	if got := fieldRaw(t, coil, "Gross Rated Cooling COP"); got != "3" {
		t.Fatalf("COP must be untouched, got %s", got)
	}
}

func TestDHWAddressesFieldsByIndex(t *testing.T) {
	fixture := record(ObjectWaterUseEquipment, "showers",
		textField("", 0, "showers"),
		textField("", 1, "Domestic"),
		numField("", 2, 0.0002),
	)
	mod := newTestModifier(t, NewDHWModifier, NewRulesEngine(), nil)

	results := applyOne(t, mod, graphOf(fixture), CategoryConfig{"peak_flow_rate": factorCfg(2)}, "")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if !results[0].NewValue.Equal(domain.Number(0.0004)) {
		t.Fatalf("expected 0.0004, got %v", results[0].NewValue)
	}
	if fixture.Fields[2].Raw != "0.0004" {
		t.Fatalf("expected positional field updated, got %s", fixture.Fields[2].Raw)
	}
}

func TestEngineRuleErrorMarksResultsAsErrors(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "broken", err: errBoom()})
	mod := newTestModifier(t, NewLightingModifier, engine, nil)
	lights := lightsRecord()

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": absoluteCfg(8)}, "")
	if len(results) != 1 || results[0].ValidationStatus != domain.StatusError {
		t.Fatalf("expected error status, got %+v", results)
	}
	if !strings.Contains(results[0].Message, "boom") {
		t.Fatalf("expected rule error in message, got %q", results[0].Message)
	}
	if got := fieldRaw(t, lights, "Watts per Zone Floor Area"); got != "10" {
		t.Fatalf("value must be untouched, got %s", got)
	}
}

func TestBlockingViolationOnUnstagedParameterRejectsRecord(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "fraction_guard", violation: Violation{
		Severity:  SeverityBlock,
		Parameter: "Fraction Radiant",
		Message:   "radiant fraction out of range",
	}})
	mod := newTestModifier(t, NewLightingModifier, engine, nil)
	lights := lightsRecord()

	done := make(chan []ModificationResult, 1)
	go func() {
		done <- applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": factorCfg(0.9)}, "")
	}()
	var results []ModificationResult
	select {
	case results = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("rule evaluation did not terminate")
	}
	if len(results) != 1 {
		t.Fatalf("expected one result, got %+v", results)
	}
	r := results[0]
	if r.Success || r.ValidationStatus != domain.StatusInvalid || r.Rule != "fraction_guard" {
		t.Fatalf("expected record-wide rejection, got %+v", r)
	}
	if !strings.Contains(r.Message, "change blocked by rule fraction_guard: radiant fraction out of range") {
		t.Fatalf("expected rule violation text, got %q", r.Message)
	}
	if got := fieldRaw(t, lights, "Watts per Zone Floor Area"); got != "10" {
		t.Fatalf("watts must be untouched, got %s", got)
	}
}

func TestNonFiniteValuesAreNeverWritten(t *testing.T) {
	cases := []struct {
		name   string
		cfg    ParameterConfig
		status domain.ValidationStatus
	}{
		{"absolute NaN operand", absoluteCfg(math.NaN()), domain.StatusError},
		{"infinite factor operand", factorCfg(math.Inf(1)), domain.StatusError},
		{"product overflows", factorCfg(math.MaxFloat64), domain.StatusInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lights := lightsRecord()
			mod := newTestModifier(t, NewLightingModifier, NewRulesEngine(), nil)

			results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": tc.cfg}, "")
			if len(results) != 1 {
				t.Fatalf("expected one result, got %+v", results)
			}
			if r := results[0]; r.Success || r.ValidationStatus != tc.status {
				t.Fatalf("expected %s, got %+v", tc.status, r)
			}
			if got := fieldRaw(t, lights, "Watts per Zone Floor Area"); got != "10" {
				t.Fatalf("watts must be untouched, got %s", got)
			}
		})
	}
}

func TestWarningViolationsAnnotateAcceptedChanges(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{name: "advisory", violation: Violation{Severity: SeverityWarn, Message: "check daylighting"}})
	mod := newTestModifier(t, NewLightingModifier, engine, nil)
	lights := lightsRecord()

	results := applyOne(t, mod, graphOf(lights), CategoryConfig{"watts_per_area": absoluteCfg(8)}, "")
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if !strings.Contains(results[0].Message, "warning: check daylighting") {
		t.Fatalf("expected warning note, got %q", results[0].Message)
	}
	if got := fieldRaw(t, lights, "Watts per Zone Floor Area"); got != "8" {
		t.Fatalf("expected 8, got %s", got)
	}
}

func TestModifierSetCoversBuiltinCategories(t *testing.T) {
	svc, err := NewService()
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	set := svc.NewModifierSet(1)
	if got := set.Categories(); len(got) != 8 {
		t.Fatalf("expected 8 categories, got %v", got)
	}
	mod, ok := set.Modifier(domain.CategoryDHW)
	if !ok || mod.Category() != domain.CategoryDHW {
		t.Fatalf("expected dhw modifier, got %v %v", mod, ok)
	}
}
