package core

import (
	"context"

	"variantcore/pkg/domain"
)

// EnvelopeModifier adjusts opaque materials and simple glazing systems.
type EnvelopeModifier struct {
	*baseModifier
	rules []Rule
}

// NewEnvelopeModifier constructs the envelope modifier. Conductivity changes
// below MinConductivity are rejected.
func NewEnvelopeModifier(deps ModifierDeps) Modifier {
	return &EnvelopeModifier{
		baseModifier: newBaseModifier(domain.CategoryEnvelope, deps),
		rules:        []Rule{NewConductivityFloorRule()},
	}
}

func (m *EnvelopeModifier) Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	return m.apply(ctx, records, cfg, strategy, m.rules)
}
