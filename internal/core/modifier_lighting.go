package core

import (
	"context"

	"variantcore/pkg/domain"
)

// LightingModifier adjusts lighting power density and heat fractions. All
// pending changes of a lights record are rejected together when the staged
// radiant, visible and return-air fractions exceed MaxLightingFractionSum.
type LightingModifier struct {
	*baseModifier
	fractions Rule
}

// NewLightingModifier constructs the lighting modifier.
func NewLightingModifier(deps ModifierDeps) Modifier {
	return &LightingModifier{
		baseModifier: newBaseModifier(domain.CategoryLighting, deps),
		fractions:    NewLightingFractionRule(),
	}
}

func (m *LightingModifier) Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	return m.apply(ctx, records, cfg, strategy, []Rule{m.fractions})
}
