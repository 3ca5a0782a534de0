package core

import (
	"context"
	"fmt"
)

// MaxCOP is the highest coefficient of performance considered realistic.
const MaxCOP = 10.0

// NewCOPCeilingRule rejects cooling COP values above MaxCOP.
func NewCOPCeilingRule() Rule {
	return copCeilingRule{}
}

type copCeilingRule struct{}

func (copCeilingRule) Name() string { return "cop_ceiling" }

func (copCeilingRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	rec := view.Record()
	change, ok := changeFor(changes, coolingCOPKey)
	if !ok {
		return Result{}, nil
	}
	v, ok := change.After.Float()
	if !ok || v <= MaxCOP {
		return Result{}, nil
	}
	return Result{Violations: []Violation{{
		Rule:       "cop_ceiling",
		Severity:   SeverityBlock,
		Message:    fmt.Sprintf("COP %g for %s exceeds realistic ceiling %g", v, rec.Name, MaxCOP),
		ObjectType: rec.ObjectType,
		ObjectName: rec.Name,
		Parameter:  change.Parameter,
	}}}, nil
}
