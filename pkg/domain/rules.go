package domain

import (
	"context"
	"fmt"
)

// Severity determines whether a violation rejects the pending change.
type Severity string

// Violation severities.
const (
	SeverityBlock Severity = "block"
	SeverityWarn  Severity = "warn"
)

// Change is one pending field mutation on a staged record.
type Change struct {
	Parameter string
	Field     FieldRef
	Before    Value
	After     Value
}

// RuleView provides read-only access to a staged record for rule evaluation.
// The staged record already carries every pending change.
type RuleView interface {
	Category() Category
	Record() ParsedRecord
	Definition(parameter string) (ParameterDefinition, bool)
}

// Rule defines a domain constraint evaluated after per-field constraints.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error)
}

// Violation reports a failed rule evaluation. An empty Parameter marks a
// record-wide violation that rejects every pending change of the record.
type Violation struct {
	Rule       string
	Severity   Severity
	Message    string
	ObjectType string
	ObjectName string
	Parameter  string
}

// Result aggregates rule violations.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError describes the first blocking violation of a result.
// Modifiers use its text as the message of every change a rule rejects.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock {
			return fmt.Sprintf("change blocked by rule %s: %s", v.Rule, v.Message)
		}
	}
	return "change blocked by rules"
}

// RulesEngine orchestrates rule evaluation.
type RulesEngine struct {
	rules []Rule
}

// NewRulesEngine constructs an engine instance.
func NewRulesEngine(rules ...Rule) *RulesEngine {
	e := &RulesEngine{}
	for _, r := range rules {
		e.Register(r)
	}
	return e
}

// Register appends a rule to the engine.
func (e *RulesEngine) Register(rule Rule) {
	if rule == nil {
		return
	}
	e.rules = append(e.rules, rule)
}

// Rules returns a copy of the registered rules.
func (e *RulesEngine) Rules() []Rule {
	if e == nil {
		return nil
	}
	return append([]Rule(nil), e.rules...)
}

// Evaluate executes all registered rules and aggregates their results.
func (e *RulesEngine) Evaluate(ctx context.Context, view RuleView, changes []Change) (Result, error) {
	var combined Result
	if e == nil {
		return combined, nil
	}
	for _, rule := range e.rules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}
