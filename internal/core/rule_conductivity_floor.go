package core

import (
	"context"
	"fmt"
)

// MinConductivity is the lowest accepted material conductivity in W/m-K.
const MinConductivity = 0.001

// NewConductivityFloorRule rejects material conductivities below MinConductivity.
func NewConductivityFloorRule() Rule {
	return conductivityFloorRule{}
}

type conductivityFloorRule struct{}

func (conductivityFloorRule) Name() string { return "conductivity_floor" }

func (conductivityFloorRule) Evaluate(_ context.Context, view RuleView, changes []Change) (Result, error) {
	rec := view.Record()
	change, ok := changeFor(changes, materialConductivityKey)
	if !ok || !sameObjectType(rec.ObjectType, ObjectMaterial) {
		return Result{}, nil
	}
	v, ok := change.After.Float()
	if !ok || v >= MinConductivity {
		return Result{}, nil
	}
	return Result{Violations: []Violation{{
		Rule:       "conductivity_floor",
		Severity:   SeverityBlock,
		Message:    fmt.Sprintf("conductivity %g W/m-K for material %s is below the %g floor", v, rec.Name, MinConductivity),
		ObjectType: rec.ObjectType,
		ObjectName: rec.Name,
		Parameter:  change.Parameter,
	}}}, nil
}
