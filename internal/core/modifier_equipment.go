package core

import "variantcore/pkg/domain"

// NewEquipmentModifier constructs the plug-load modifier.
func NewEquipmentModifier(deps ModifierDeps) Modifier {
	return &equipmentModifier{newBaseModifier(domain.CategoryEquipment, deps)}
}

type equipmentModifier struct {
	*baseModifier
}
