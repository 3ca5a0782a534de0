package core

import "variantcore/pkg/domain"

// Object types understood by the built-in modifiers.
const (
	ObjectZone                = "ZONE"
	ObjectFenestrationSurface = "FENESTRATIONSURFACE:DETAILED"
	ObjectWindow              = "WINDOW"
	ObjectOutdoorAirSpec      = "DESIGNSPECIFICATION:OUTDOORAIR"
	ObjectZoneVentilation     = "ZONEVENTILATION:DESIGNFLOWRATE"
	ObjectLights              = "LIGHTS"
	ObjectElectricEquipment   = "ELECTRICEQUIPMENT"
	ObjectMaterial            = "MATERIAL"
	ObjectSimpleGlazing       = "WINDOWMATERIAL:SIMPLEGLAZINGSYSTEM"
	ObjectCoolingCoilDX       = "COIL:COOLING:DX:SINGLESPEED"
	ObjectHeatingCoilFuel     = "COIL:HEATING:FUEL"
	ObjectFanConstantVolume   = "FAN:CONSTANTVOLUME"
	ObjectIdealLoads          = "ZONEHVAC:IDEALLOADSAIRSYSTEM"
	ObjectZoneInfiltration    = "ZONEINFILTRATION:DESIGNFLOWRATE"
	ObjectWaterHeaterMixed    = "WATERHEATER:MIXED"
	ObjectWaterUseEquipment   = "WATERUSE:EQUIPMENT"
)

const (
	performanceHigh           = "high"
	performanceMedium         = "medium"
	performanceLow            = "low"
	lightingReturnAirFraction = "return_air_fraction"
	lightingFractionRadiant   = "fraction_radiant"
	lightingFractionVisible   = "fraction_visible"
	windowMultiplierKey       = "window_multiplier"
	windowMultiplierSimpleKey = "window_multiplier_simple"
	materialConductivityKey   = "conductivity"
	coolingCOPKey             = "gross_rated_cop"
	defaultStrategy           = "configured"
	ventilationTypeNatural    = "Natural"
	ventilationTypeExhaust    = "Exhaust"
	ventilationTypeIntake     = "Intake"
	ventilationTypeBalanced   = "Balanced"
)

func float(key, objectType, field, units string, lo, hi *float64, impact string, deps ...string) domain.ParameterDefinition {
	return domain.ParameterDefinition{
		Key:        key,
		ObjectType: objectType,
		Field:      domain.ByName(field),
		DataType:   domain.DataTypeFloat,
		Units:      units,
		Min:        lo,
		Max:        hi,
		DependsOn:  deps,
		Impact:     impact,
	}
}

func integer(key, objectType, field, units string, lo, hi *float64, impact string) domain.ParameterDefinition {
	def := float(key, objectType, field, units, lo, hi, impact)
	def.DataType = domain.DataTypeInteger
	return def
}

func enum(key, objectType, field string, impact string, options ...string) domain.ParameterDefinition {
	values := make([]domain.Value, len(options))
	for i, o := range options {
		values[i] = domain.Text(o)
	}
	return domain.ParameterDefinition{
		Key:           key,
		ObjectType:    objectType,
		Field:         domain.ByName(field),
		DataType:      domain.DataTypeEnum,
		AllowedValues: values,
		Impact:        impact,
	}
}

var bound = domain.Bound

// BuiltinCatalogs returns the parameter catalogs for every built-in category.
func BuiltinCatalogs() []Catalog {
	return []Catalog{
		geometryCatalog(),
		ventilationCatalog(),
		lightingCatalog(),
		equipmentCatalog(),
		envelopeCatalog(),
		hvacCatalog(),
		infiltrationCatalog(),
		dhwCatalog(),
	}
}

func geometryCatalog() Catalog {
	return Catalog{Category: domain.CategoryGeometry, Definitions: []domain.ParameterDefinition{
		integer("zone_multiplier", ObjectZone, "Multiplier", "", bound(1), bound(100), performanceHigh),
		float("ceiling_height", ObjectZone, "Ceiling Height", "m", bound(2.0), bound(6.0), performanceMedium),
		float(windowMultiplierKey, ObjectFenestrationSurface, "Multiplier", "", nil, bound(10), performanceHigh),
		float(windowMultiplierSimpleKey, ObjectWindow, "Multiplier", "", nil, bound(10), performanceHigh),
	}}
}

func ventilationCatalog() Catalog {
	return Catalog{Category: domain.CategoryVentilation, Definitions: []domain.ParameterDefinition{
		float("outdoor_air_per_person", ObjectOutdoorAirSpec, "Outdoor Air Flow per Person", "m3/s-person", bound(0), bound(0.05), performanceHigh),
		float("outdoor_air_per_area", ObjectOutdoorAirSpec, "Outdoor Air Flow per Zone Floor Area", "m3/s-m2", bound(0), bound(0.01), performanceHigh),
		float("design_flow_rate", ObjectZoneVentilation, "Design Flow Rate", "m3/s", bound(0), nil, performanceMedium),
		float("air_changes_per_hour", ObjectZoneVentilation, "Air Changes per Hour", "1/hr", bound(0), bound(20), performanceHigh),
		enum("ventilation_type", ObjectZoneVentilation, "Ventilation Type", performanceMedium,
			ventilationTypeNatural, ventilationTypeExhaust, ventilationTypeIntake, ventilationTypeBalanced),
		float("fan_total_efficiency", ObjectZoneVentilation, "Fan Total Efficiency", "", bound(0.1), bound(1.0), performanceLow),
	}}
}

func lightingCatalog() Catalog {
	return Catalog{Category: domain.CategoryLighting, Definitions: []domain.ParameterDefinition{
		float("watts_per_area", ObjectLights, "Watts per Zone Floor Area", "W/m2", bound(0), bound(50), performanceHigh),
		float(lightingReturnAirFraction, ObjectLights, "Return Air Fraction", "", bound(0), bound(1), performanceLow, lightingFractionRadiant, lightingFractionVisible),
		float(lightingFractionRadiant, ObjectLights, "Fraction Radiant", "", bound(0), bound(1), performanceLow, lightingReturnAirFraction, lightingFractionVisible),
		float(lightingFractionVisible, ObjectLights, "Fraction Visible", "", bound(0), bound(1), performanceLow, lightingReturnAirFraction, lightingFractionRadiant),
		float("fraction_replaceable", ObjectLights, "Fraction Replaceable", "", bound(0), bound(1), performanceLow),
	}}
}

func equipmentCatalog() Catalog {
	return Catalog{Category: domain.CategoryEquipment, Definitions: []domain.ParameterDefinition{
		float("equipment_watts_per_area", ObjectElectricEquipment, "Watts per Zone Floor Area", "W/m2", bound(0), bound(100), performanceHigh),
		float("equipment_fraction_latent", ObjectElectricEquipment, "Fraction Latent", "", bound(0), bound(1), performanceLow),
		float("equipment_fraction_radiant", ObjectElectricEquipment, "Fraction Radiant", "", bound(0), bound(1), performanceLow),
		float("equipment_fraction_lost", ObjectElectricEquipment, "Fraction Lost", "", bound(0), bound(1), performanceLow),
	}}
}

func envelopeCatalog() Catalog {
	return Catalog{Category: domain.CategoryEnvelope, Definitions: []domain.ParameterDefinition{
		enum("roughness", ObjectMaterial, "Roughness", performanceLow,
			"VeryRough", "Rough", "MediumRough", "MediumSmooth", "Smooth", "VerySmooth"),
		float("thickness", ObjectMaterial, "Thickness", "m", bound(0.001), bound(1.0), performanceHigh, materialConductivityKey),
		float(materialConductivityKey, ObjectMaterial, "Conductivity", "W/m-K", bound(0), bound(5.0), performanceHigh, "thickness"),
		float("density", ObjectMaterial, "Density", "kg/m3", bound(10), bound(3000), performanceMedium),
		float("specific_heat", ObjectMaterial, "Specific Heat", "J/kg-K", bound(100), bound(5000), performanceMedium),
		float("thermal_absorptance", ObjectMaterial, "Thermal Absorptance", "", bound(0.01), bound(0.99999), performanceLow),
		float("solar_absorptance", ObjectMaterial, "Solar Absorptance", "", bound(0), bound(1), performanceMedium),
		float("u_factor", ObjectSimpleGlazing, "U-Factor", "W/m2-K", bound(0.5), bound(7.0), performanceHigh),
		float("shgc", ObjectSimpleGlazing, "Solar Heat Gain Coefficient", "", bound(0.05), bound(0.95), performanceHigh),
		float("visible_transmittance", ObjectSimpleGlazing, "Visible Transmittance", "", bound(0.05), bound(0.95), performanceMedium),
	}}
}

func hvacCatalog() Catalog {
	return Catalog{Category: domain.CategoryHVAC, Definitions: []domain.ParameterDefinition{
		float(coolingCOPKey, ObjectCoolingCoilDX, "Gross Rated Cooling COP", "W/W", bound(0.5), nil, performanceHigh),
		float("rated_air_flow_rate", ObjectCoolingCoilDX, "Rated Air Flow Rate", "m3/s", bound(0), nil, performanceMedium),
		float("burner_efficiency", ObjectHeatingCoilFuel, "Burner Efficiency", "", bound(0.5), bound(1.0), performanceHigh),
		float("fan_efficiency", ObjectFanConstantVolume, "Fan Total Efficiency", "", bound(0.1), bound(1.0), performanceMedium),
		float("fan_pressure_rise", ObjectFanConstantVolume, "Pressure Rise", "Pa", bound(0), bound(2000), performanceMedium),
		float("max_heating_supply_temp", ObjectIdealLoads, "Maximum Heating Supply Air Temperature", "C", bound(30), bound(60), performanceMedium),
		float("min_cooling_supply_temp", ObjectIdealLoads, "Minimum Cooling Supply Air Temperature", "C", bound(8), bound(18), performanceMedium),
	}}
}

func infiltrationCatalog() Catalog {
	return Catalog{Category: domain.CategoryInfiltration, Definitions: []domain.ParameterDefinition{
		enum("calculation_method", ObjectZoneInfiltration, "Design Flow Rate Calculation Method", performanceMedium,
			"Flow/Zone", "Flow/Area", "Flow/ExteriorArea", "AirChanges/Hour"),
		float("infiltration_flow_per_exterior_area", ObjectZoneInfiltration, "Flow per Exterior Surface Area", "m3/s-m2", bound(0), bound(0.003), performanceHigh),
		float("infiltration_ach", ObjectZoneInfiltration, "Air Changes per Hour", "1/hr", bound(0), bound(5), performanceHigh),
		float("constant_term_coefficient", ObjectZoneInfiltration, "Constant Term Coefficient", "", bound(0), bound(1), performanceLow),
	}}
}

func dhwCatalog() Catalog {
	peakFlow := float("peak_flow_rate", ObjectWaterUseEquipment, "", "m3/s", bound(0), bound(0.001), performanceMedium)
	// Water use equipment is addressed positionally: the parser does not name its fields.
	peakFlow.Field = domain.ByIndex(2)
	return Catalog{Category: domain.CategoryDHW, Definitions: []domain.ParameterDefinition{
		float("tank_volume", ObjectWaterHeaterMixed, "Tank Volume", "m3", bound(0.05), bound(2.0), performanceMedium),
		float("heater_capacity", ObjectWaterHeaterMixed, "Heater Maximum Capacity", "W", bound(1000), bound(100000), performanceMedium),
		float("heater_efficiency", ObjectWaterHeaterMixed, "Heater Thermal Efficiency", "", bound(0.5), bound(1.0), performanceHigh),
		peakFlow,
	}}
}
