package core

import (
	"sort"

	"variantcore/pkg/domain"
)

// BuiltinModifiers returns the factory for every built-in category.
func BuiltinModifiers() map[Category]ModifierFactory {
	return map[Category]ModifierFactory{
		domain.CategoryGeometry:     NewGeometryModifier,
		domain.CategoryVentilation:  NewVentilationModifier,
		domain.CategoryLighting:     NewLightingModifier,
		domain.CategoryEquipment:    NewEquipmentModifier,
		domain.CategoryEnvelope:     NewEnvelopeModifier,
		domain.CategoryHVAC:         NewHVACModifier,
		domain.CategoryInfiltration: NewInfiltrationModifier,
		domain.CategoryDHW:          NewDHWModifier,
	}
}

// ModifierSet is the dispatch table of one worker. Modifiers in a set share a
// Calculator and must not be used from more than one goroutine.
type ModifierSet struct {
	modifiers map[Category]Modifier
}

// Modifier returns the modifier registered for category.
func (s *ModifierSet) Modifier(category Category) (Modifier, bool) {
	m, ok := s.modifiers[category]
	return m, ok
}

// Categories returns the categories in the set, sorted.
func (s *ModifierSet) Categories() []Category {
	out := make([]Category, 0, len(s.modifiers))
	for c := range s.modifiers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
