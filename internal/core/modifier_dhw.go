package core

import "variantcore/pkg/domain"

// NewDHWModifier constructs the domestic hot water modifier. Water use
// equipment fields are addressed by position.
func NewDHWModifier(deps ModifierDeps) Modifier {
	return &dhwModifier{newBaseModifier(domain.CategoryDHW, deps)}
}

type dhwModifier struct {
	*baseModifier
}
