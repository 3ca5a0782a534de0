package core

import (
	"fmt"
	"math"
	"strings"

	"variantcore/pkg/domain"
)

// Coerce converts v to the definition's data type. Integers are rounded to the
// nearest whole number; floats keep full precision. NaN and infinities are
// rejected.
func Coerce(def domain.ParameterDefinition, v domain.Value) (domain.Value, error) {
	switch def.DataType {
	case domain.DataTypeInteger, domain.DataTypeFloat:
		f, ok := v.Float()
		if !ok {
			return domain.Value{}, fmt.Errorf("cannot coerce %q to %s", v.String(), def.DataType)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return domain.Value{}, fmt.Errorf("%s value %g is not finite", def.DataType, f)
		}
		if def.DataType == domain.DataTypeInteger {
			f = math.Round(f)
		}
		return domain.Number(f), nil
	case domain.DataTypeString, domain.DataTypeEnum:
		return domain.Text(v.String()), nil
	}
	return domain.Value{}, fmt.Errorf("unknown data type %q", def.DataType)
}

// EnforceFieldConstraints clamps numeric values into [Min, Max] and snaps them to
// the nearest allowed value. Textual values must match an allowed value
// (case-insensitively) when a set is declared. The note describes any adjustment.
func EnforceFieldConstraints(def domain.ParameterDefinition, v domain.Value) (domain.Value, string, error) {
	if !def.DataType.Numeric() {
		if len(def.AllowedValues) == 0 {
			return v, "", nil
		}
		for _, allowed := range def.AllowedValues {
			if strings.EqualFold(allowed.String(), v.String()) {
				return domain.Text(allowed.String()), "", nil
			}
		}
		return domain.Value{}, "", fmt.Errorf("%q is not one of %s", v.String(), joinValues(def.AllowedValues))
	}

	f, ok := v.Float()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return domain.Value{}, "", fmt.Errorf("cannot compare %q against numeric bounds", v.String())
	}
	var notes []string
	if def.Min != nil && f < *def.Min {
		notes = append(notes, fmt.Sprintf("clamped %g to minimum %g", f, *def.Min))
		f = *def.Min
	}
	if def.Max != nil && f > *def.Max {
		notes = append(notes, fmt.Sprintf("clamped %g to maximum %g", f, *def.Max))
		f = *def.Max
	}
	if snapped, ok := nearestAllowed(def.AllowedValues, f); ok && snapped != f {
		notes = append(notes, fmt.Sprintf("snapped %g to allowed value %g", f, snapped))
		f = snapped
	}
	return domain.Number(f), strings.Join(notes, "; "), nil
}

// nearestAllowed returns the numeric allowed value closest to f. Ties keep the
// first declared value.
func nearestAllowed(allowed []domain.Value, f float64) (float64, bool) {
	best, found := 0.0, false
	bestDist := math.Inf(1)
	for _, a := range allowed {
		n, ok := a.Float()
		if !ok {
			continue
		}
		if d := math.Abs(n - f); d < bestDist {
			best, bestDist, found = n, d, true
		}
	}
	return best, found
}

func joinValues(values []domain.Value) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
