package core

import "variantcore/pkg/domain"

// NewInfiltrationModifier constructs the modifier for zone infiltration objects.
func NewInfiltrationModifier(deps ModifierDeps) Modifier {
	return &infiltrationModifier{newBaseModifier(domain.CategoryInfiltration, deps)}
}

type infiltrationModifier struct {
	*baseModifier
}
