package core

import (
	"context"
	"fmt"
)

// MinWindowMultiplier is the smallest accepted window-area multiplier.
const MinWindowMultiplier = 1.0

// NewWindowMultiplierRule rejects window multipliers below MinWindowMultiplier.
func NewWindowMultiplierRule() Rule {
	return windowMultiplierRule{}
}

type windowMultiplierRule struct{}

func (windowMultiplierRule) Name() string { return "window_multiplier_minimum" }

func (windowMultiplierRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	rec := view.Record()
	res := Result{}
	for _, change := range changes {
		def, ok := view.Definition(change.Parameter)
		if !ok || !sameObjectType(def.ObjectType, rec.ObjectType) {
			continue
		}
		if change.Parameter != windowMultiplierKey && change.Parameter != windowMultiplierSimpleKey {
			continue
		}
		v, ok := change.After.Float()
		if !ok {
			continue
		}
		if v < MinWindowMultiplier {
			res.Violations = append(res.Violations, Violation{
				Rule:       "window_multiplier_minimum",
				Severity:   SeverityBlock,
				Message:    fmt.Sprintf("window multiplier %g for %s must be >= %g", v, rec.Name, MinWindowMultiplier),
				ObjectType: rec.ObjectType,
				ObjectName: rec.Name,
				Parameter:  change.Parameter,
			})
		}
	}
	return res, nil
}
