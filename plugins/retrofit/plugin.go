// Package retrofit contributes deep-retrofit presets, the installed lighting
// power parameter and a warning rule for aggressive lighting reductions.
package retrofit

import (
	"context"
	"fmt"

	"variantcore/internal/core"
)

const (
	// LightingLevelKey is the installed lighting power of a lights record.
	LightingLevelKey = "lighting_level"
	// StrategyDeepRetrofit is the preset name registered for lighting and envelope.
	StrategyDeepRetrofit = "deep_retrofit"
	// MinLightingPowerDensity is the W/m2 below which a warning is raised.
	MinLightingPowerDensity = 2.0

	ruleName = "retrofit_lighting_floor"
)

// Plugin implements the retrofit module.
type Plugin struct{}

// New constructs a retrofit plugin instance.
func New() Plugin {
	return Plugin{}
}

// Name returns the plugin identifier.
func (Plugin) Name() string { return "retrofit" }

// Version returns the plugin semantic version.
func (Plugin) Version() string { return "0.1.0" }

// Register wires the parameter, presets and rule.
func (Plugin) Register(registry *core.PluginRegistry) error {
	if err := registry.RegisterParameters(core.Catalog{
		Category: core.CategoryLighting,
		Definitions: []core.ParameterDefinition{
			core.FloatParameter(LightingLevelKey, core.ObjectLights, "Lighting Level", "W", core.Bound(0), core.Bound(100000), "medium"),
		},
	}); err != nil {
		return err
	}
	if err := registry.RegisterStrategy(core.CategoryLighting, StrategyDeepRetrofit, core.CategoryConfig{
		"watts_per_area": core.Scaled(0.4, 0.6),
		LightingLevelKey: core.Scaled(0.4, 0.6),
	}); err != nil {
		return err
	}
	if err := registry.RegisterStrategy(core.CategoryEnvelope, StrategyDeepRetrofit, core.CategoryConfig{
		"conductivity": core.Scaled(0.4, 0.6),
		"u_factor":     core.Absolute(1.0),
	}); err != nil {
		return err
	}
	registry.RegisterRule(lightingFloorRule{})
	return nil
}

type lightingFloorRule struct{}

func (lightingFloorRule) Name() string { return ruleName }

func (lightingFloorRule) Evaluate(_ context.Context, view core.RuleView, changes []core.Change) (core.Result, error) {
	var result core.Result
	rec := view.Record()
	for _, change := range changes {
		if change.Parameter != "watts_per_area" {
			continue
		}
		v, ok := change.After.Float()
		if !ok || v >= MinLightingPowerDensity {
			continue
		}
		result.Violations = append(result.Violations, core.Violation{
			Rule:       ruleName,
			Severity:   core.SeverityWarn,
			Message:    fmt.Sprintf("lighting power density %.2f W/m2 below %.1f", v, MinLightingPowerDensity),
			ObjectType: rec.ObjectType,
			ObjectName: rec.Name,
			Parameter:  change.Parameter,
		})
	}
	return result, nil
}
