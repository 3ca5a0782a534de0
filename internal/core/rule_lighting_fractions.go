package core

import (
	"context"
	"fmt"

	"variantcore/pkg/domain"
)

// MaxLightingFractionSum bounds radiant + visible + return-air fractions of a
// lights record, including floating tolerance.
const MaxLightingFractionSum = 1.002

// NewLightingFractionRule rejects every pending change of a lights record whose
// staged heat fractions sum above MaxLightingFractionSum.
func NewLightingFractionRule() Rule {
	return lightingFractionRule{}
}

type lightingFractionRule struct{}

func (lightingFractionRule) Name() string { return "lighting_fraction_sum" }

func (lightingFractionRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	rec := view.Record()
	if !sameObjectType(rec.ObjectType, ObjectLights) || len(changes) == 0 {
		return Result{}, nil
	}
	sum, ok := LightingFractionSum(view, rec)
	if !ok || sum <= MaxLightingFractionSum {
		return Result{}, nil
	}
	return Result{Violations: []Violation{{
		Rule:       "lighting_fraction_sum",
		Severity:   SeverityBlock,
		Message:    fmt.Sprintf("lighting fractions for %s sum to %.4f (radiant + visible + return air must be <= 1.0)", rec.Name, sum),
		ObjectType: rec.ObjectType,
		ObjectName: rec.Name,
	}}}, nil
}

// LightingFractionSum adds the radiant, visible and return-air fractions of rec.
// Missing fields count as zero; ok is false when a present field is not numeric.
func LightingFractionSum(view RuleView, rec domain.ParsedRecord) (float64, bool) {
	total := 0.0
	for _, key := range []string{lightingFractionRadiant, lightingFractionVisible, lightingReturnAirFraction} {
		def, ok := view.Definition(key)
		if !ok {
			continue
		}
		pos, found := rec.Find(def.Field)
		if !found {
			continue
		}
		v, ok := fieldValue(rec.Fields[pos])
		if !ok {
			return 0, false
		}
		total += v
	}
	return total, true
}

func fieldValue(f domain.Field) (float64, bool) {
	if f.Numeric != nil {
		return *f.Numeric, true
	}
	return domain.Text(f.Raw).Float()
}
