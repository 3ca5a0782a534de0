package core

import "variantcore/pkg/domain"

// NewRulesEngine constructs an empty engine.
func NewRulesEngine() *RulesEngine {
	return domain.NewRulesEngine()
}

// NewDefaultRulesEngine builds an engine holding every built-in domain rule.
// Category modifiers attach their own rules; this engine is for callers that
// validate records outside a modifier.
func NewDefaultRulesEngine() *RulesEngine {
	return domain.NewRulesEngine(defaultRules()...)
}

func defaultRules() []Rule {
	return []Rule{
		NewWindowMultiplierRule(),
		NewConductivityFloorRule(),
		NewCOPCeilingRule(),
		NewLightingFractionRule(),
	}
}

// changeFor returns the pending change for parameter.
func changeFor(changes []Change, parameter string) (Change, bool) {
	for _, c := range changes {
		if c.Parameter == parameter {
			return c, true
		}
	}
	return Change{}, false
}
