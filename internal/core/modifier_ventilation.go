package core

import "variantcore/pkg/domain"

// NewVentilationModifier constructs the modifier for outdoor-air
// specifications and zone ventilation objects.
func NewVentilationModifier(deps ModifierDeps) Modifier {
	return &ventilationModifier{newBaseModifier(domain.CategoryVentilation, deps)}
}

type ventilationModifier struct {
	*baseModifier
}
