package core

import "variantcore/pkg/domain"

// Named strategy presets. Configuration entries for the same parameter
// override the preset entry.
const (
	StrategyHighEfficiency        = "high_efficiency"
	StrategySuperInsulation       = "super_insulation"
	StrategyDemandControlled      = "demand_controlled"
	StrategyTightEnvelope         = "tight_envelope"
	StrategyGlazingSweep          = "glazing_sweep"
	StrategyLowPlugLoad           = "low_plug_load"
	StrategyEfficientWaterHeating = "efficient_water_heating"
)

func absolute(v float64) domain.ParameterConfig {
	n := domain.Number(v)
	return domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodAbsolute, Value: &n}}
}

func scaled(lo, hi float64) domain.ParameterConfig {
	return domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodMultiplier, Range: []float64{lo, hi}}}
}

func percent(lo, hi float64) domain.ParameterConfig {
	return domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodPercentage, Range: []float64{lo, hi}}}
}

func choice(options ...string) domain.ParameterConfig {
	values := make([]domain.Value, len(options))
	for i, o := range options {
		values[i] = domain.Text(o)
	}
	return domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodDiscrete, Options: values}}
}

// BuiltinStrategies returns the presets shipped for each category.
func BuiltinStrategies() map[Category]map[string]CategoryConfig {
	return map[Category]map[string]CategoryConfig{
		domain.CategoryGeometry: {
			StrategyGlazingSweep: {
				windowMultiplierKey:       scaled(1.0, 1.5),
				windowMultiplierSimpleKey: scaled(1.0, 1.5),
			},
		},
		domain.CategoryVentilation: {
			StrategyDemandControlled: {
				"outdoor_air_per_person": percent(-30, -10),
				"air_changes_per_hour":   scaled(0.6, 0.9),
				"ventilation_type":       choice(ventilationTypeBalanced),
			},
		},
		domain.CategoryLighting: {
			StrategyHighEfficiency: {
				"watts_per_area": scaled(0.5, 0.8),
			},
		},
		domain.CategoryEquipment: {
			StrategyLowPlugLoad: {
				"equipment_watts_per_area": percent(-40, -15),
			},
		},
		domain.CategoryEnvelope: {
			StrategySuperInsulation: {
				materialConductivityKey: scaled(0.3, 0.6),
				"u_factor":              scaled(0.4, 0.7),
				"shgc":                  percent(-20, 0),
			},
		},
		domain.CategoryHVAC: {
			StrategyHighEfficiency: {
				coolingCOPKey:       scaled(1.2, 1.6),
				"burner_efficiency": absolute(0.95),
				"fan_efficiency":    absolute(0.7),
			},
		},
		domain.CategoryInfiltration: {
			StrategyTightEnvelope: {
				"infiltration_flow_per_exterior_area": scaled(0.3, 0.6),
				"infiltration_ach":                    scaled(0.3, 0.6),
			},
		},
		domain.CategoryDHW: {
			StrategyEfficientWaterHeating: {
				"heater_efficiency": absolute(0.95),
				"peak_flow_rate":    percent(-30, -10),
			},
		},
	}
}
