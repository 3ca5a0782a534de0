package core

import (
	"context"

	"variantcore/pkg/domain"
)

// HVACModifier adjusts coil, fan and ideal-loads parameters.
type HVACModifier struct {
	*baseModifier
	rules []Rule
}

// NewHVACModifier constructs the hvac modifier. Cooling COP values above
// MaxCOP are rejected.
func NewHVACModifier(deps ModifierDeps) Modifier {
	return &HVACModifier{
		baseModifier: newBaseModifier(domain.CategoryHVAC, deps),
		rules:        []Rule{NewCOPCeilingRule()},
	}
}

func (m *HVACModifier) Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	return m.apply(ctx, records, cfg, strategy, m.rules)
}
