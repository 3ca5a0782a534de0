package core

import "variantcore/pkg/domain"

// Aliases keep plugin packages on the core surface instead of pkg/domain.
type (
	Category            = domain.Category
	Value               = domain.Value
	Field               = domain.Field
	ParsedRecord        = domain.ParsedRecord
	RecordGraph         = domain.RecordGraph
	ParameterDefinition = domain.ParameterDefinition
	ModificationResult  = domain.ModificationResult
	ModificationSpec    = domain.ModificationSpec
	ParameterConfig     = domain.ParameterConfig
	CategoryConfig      = domain.CategoryConfig
	ModificationConfig  = domain.ModificationConfig
	Change              = domain.Change
	Rule                = domain.Rule
	RuleView            = domain.RuleView
	Violation           = domain.Violation
	Result              = domain.Result
	RulesEngine         = domain.RulesEngine
	RuleViolationError  = domain.RuleViolationError
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn

	CategoryGeometry     = domain.CategoryGeometry
	CategoryVentilation  = domain.CategoryVentilation
	CategoryLighting     = domain.CategoryLighting
	CategoryEquipment    = domain.CategoryEquipment
	CategoryEnvelope     = domain.CategoryEnvelope
	CategoryHVAC         = domain.CategoryHVAC
	CategoryInfiltration = domain.CategoryInfiltration
	CategoryDHW          = domain.CategoryDHW

	MethodAbsolute   = domain.MethodAbsolute
	MethodMultiplier = domain.MethodMultiplier
	MethodPercentage = domain.MethodPercentage
	MethodDiscrete   = domain.MethodDiscrete
)

// FloatParameter declares a float parameter addressed by field name.
func FloatParameter(key, objectType, field, units string, lo, hi *float64, impact string) ParameterDefinition {
	return float(key, objectType, field, units, lo, hi, impact)
}

// Number wraps a numeric value.
func Number(v float64) Value { return domain.Number(v) }

// Bound returns a pointer to v for parameter limits.
func Bound(v float64) *float64 { return domain.Bound(v) }

// Scaled is a multiplier entry sampling a factor from [lo, hi].
func Scaled(lo, hi float64) ParameterConfig { return scaled(lo, hi) }

// Absolute is an entry setting the value to v.
func Absolute(v float64) ParameterConfig { return absolute(v) }
