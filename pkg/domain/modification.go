package domain

import (
	"fmt"
	"math"
)

// ChangeMethod selects how a candidate value is computed.
type ChangeMethod string

// Supported change methods.
const (
	MethodAbsolute   ChangeMethod = "absolute"
	MethodRelative   ChangeMethod = "relative"
	MethodMultiplier ChangeMethod = "multiplier"
	MethodPercentage ChangeMethod = "percentage"
	MethodDiscrete   ChangeMethod = "discrete"
)

// ModificationSpec carries the method and its operands. Which operands are
// read depends on Method: Value for absolute, Factor or Range for
// relative/multiplier, Percent or Range for percentage, Options (and an
// optional Index) for discrete.
type ModificationSpec struct {
	Method  ChangeMethod `json:"method" yaml:"method"`
	Value   *Value       `json:"value,omitempty" yaml:"value,omitempty"`
	Factor  *float64     `json:"factor,omitempty" yaml:"factor,omitempty"`
	Percent *float64     `json:"percent,omitempty" yaml:"percent,omitempty"`
	Range   []float64    `json:"range,omitempty" yaml:"range,omitempty"`
	Options []Value      `json:"options,omitempty" yaml:"options,omitempty"`
	Index   *int         `json:"index,omitempty" yaml:"index,omitempty"`
}

// Validate checks that the operands required by Method are present.
func (s ModificationSpec) Validate() error {
	switch s.Method {
	case MethodAbsolute:
		if s.Value == nil {
			return fmt.Errorf("method %s requires value", s.Method)
		}
	case MethodRelative, MethodMultiplier:
		if s.Factor == nil && len(s.Range) == 0 {
			return fmt.Errorf("method %s requires factor or range", s.Method)
		}
	case MethodPercentage:
		if s.Percent == nil && len(s.Range) == 0 {
			return fmt.Errorf("method %s requires percent or range", s.Method)
		}
	case MethodDiscrete:
		if len(s.Options) == 0 {
			return fmt.Errorf("method %s requires options", s.Method)
		}
		if s.Index != nil && (*s.Index < 0 || *s.Index >= len(s.Options)) {
			return fmt.Errorf("option index %d out of range [0,%d)", *s.Index, len(s.Options))
		}
	case "":
		return fmt.Errorf("method required")
	default:
		return fmt.Errorf("unknown method %q", s.Method)
	}
	if err := s.checkFinite(); err != nil {
		return err
	}
	if len(s.Range) != 0 {
		if len(s.Range) != 2 {
			return fmt.Errorf("range must have exactly two bounds, got %d", len(s.Range))
		}
		if s.Range[0] > s.Range[1] {
			return fmt.Errorf("range low %g exceeds high %g", s.Range[0], s.Range[1])
		}
	}
	return nil
}

func (s ModificationSpec) checkFinite() error {
	if s.Value != nil {
		if f, ok := s.Value.Float(); ok && s.Value.IsNumber() && !finite(f) {
			return fmt.Errorf("value %g is not finite", f)
		}
	}
	if s.Factor != nil && !finite(*s.Factor) {
		return fmt.Errorf("factor %g is not finite", *s.Factor)
	}
	if s.Percent != nil && !finite(*s.Percent) {
		return fmt.Errorf("percent %g is not finite", *s.Percent)
	}
	for _, b := range s.Range {
		if !finite(b) {
			return fmt.Errorf("range bound %g is not finite", b)
		}
	}
	for _, o := range s.Options {
		if f, ok := o.Float(); ok && o.IsNumber() && !finite(f) {
			return fmt.Errorf("option %g is not finite", f)
		}
	}
	return nil
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// ParameterConfig enables and specifies the change for one parameter.
type ParameterConfig struct {
	Enabled          *bool `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	ModificationSpec `yaml:",inline"`
}

// IsEnabled reports whether the entry should be applied. Entries without an
// explicit flag are enabled.
func (c ParameterConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// CategoryConfig maps parameter key to its configuration.
type CategoryConfig map[string]ParameterConfig

// ModificationConfig maps category to its parameter configuration.
type ModificationConfig map[Category]CategoryConfig

// ValidationStatus classifies the outcome of one attempted mutation.
type ValidationStatus string

// Validation statuses.
const (
	StatusValid   ValidationStatus = "valid"
	StatusInvalid ValidationStatus = "invalid"
	StatusError   ValidationStatus = "error"
)

// ModificationResult is the outcome of one attempted mutation. It is passed
// by value and never modified after the modifier returns it.
type ModificationResult struct {
	Success          bool             `json:"success"`
	Category         Category         `json:"category"`
	ObjectType       string           `json:"object_type"`
	ObjectName       string           `json:"object_name"`
	Parameter        string           `json:"parameter"`
	OriginalValue    Value            `json:"original_value"`
	NewValue         Value            `json:"new_value"`
	Method           ChangeMethod     `json:"change_method"`
	Rule             string           `json:"rule,omitempty"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Message          string           `json:"message,omitempty"`
	// Validated marks results imported from older audit logs that predate Success.
	Validated bool `json:"validated,omitempty"`
}

// Succeeded applies the success flag, honouring the legacy Validated marker.
func (r ModificationResult) Succeeded() bool {
	return r.Success || r.Validated
}
