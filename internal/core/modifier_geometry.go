package core

import (
	"context"

	"variantcore/pkg/domain"
)

// GeometryModifier scales zone multipliers, ceiling heights and glazing
// multipliers. Window multipliers below MinWindowMultiplier are rejected.
type GeometryModifier struct {
	*baseModifier
	rules []Rule
}

// NewGeometryModifier constructs the geometry modifier.
func NewGeometryModifier(deps ModifierDeps) Modifier {
	return &GeometryModifier{
		baseModifier: newBaseModifier(domain.CategoryGeometry, deps),
		rules:        []Rule{NewWindowMultiplierRule()},
	}
}

func (m *GeometryModifier) Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	return m.apply(ctx, records, cfg, strategy, m.rules)
}
