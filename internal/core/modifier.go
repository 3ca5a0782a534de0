package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"variantcore/pkg/domain"
)

// Modifier is the contract shared by every category modifier.
type Modifier interface {
	Category() Category
	// ModifiableObjectTypes lists the record kinds the modifier understands.
	ModifiableObjectTypes() []string
	// IdentifyModifiableParameters resolves every registered field of every
	// candidate record, keyed by object type. Unresolvable fields are skipped.
	IdentifyModifiableParameters(records RecordGraph) map[string][]Match
	// Apply mutates records in place and returns one result per attempted parameter.
	Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult
	// Strategies lists the named presets accepted by Apply.
	Strategies() []string
}

// Match is one modifiable field found on a record.
type Match struct {
	Record      *ParsedRecord
	Field       domain.Field
	Definition  ParameterDefinition
	Current     Value
	Discrepancy string
}

// ModifierDeps are the per-worker collaborators handed to a modifier factory.
type ModifierDeps struct {
	Registry   *Registry
	Calculator *Calculator
	Rules      *RulesEngine
	Presets    map[string]CategoryConfig
	Logger     Logger
}

// ModifierFactory builds a modifier for one worker.
type ModifierFactory func(ModifierDeps) Modifier

// baseModifier implements the shared resolve, stage, validate and commit cycle.
type baseModifier struct {
	category    Category
	objectTypes []string
	registry    *Registry
	calc        *Calculator
	rules       *RulesEngine
	presets     map[string]CategoryConfig
	log         Logger
}

func newBaseModifier(category Category, deps ModifierDeps) *baseModifier {
	m := &baseModifier{
		category: category,
		registry: deps.Registry,
		calc:     deps.Calculator,
		rules:    deps.Rules,
		presets:  deps.Presets,
		log:      deps.Logger,
	}
	if m.log == nil {
		m.log = noopLogger{}
	}
	if m.calc == nil {
		m.calc = NewCalculator(nil)
	}
	if m.registry != nil {
		m.objectTypes = m.registry.ObjectTypes(category)
	}
	return m
}

func (m *baseModifier) Category() Category { return m.category }

func (m *baseModifier) ModifiableObjectTypes() []string {
	return append([]string(nil), m.objectTypes...)
}

func (m *baseModifier) Strategies() []string {
	out := []string{defaultStrategy}
	for name := range m.presets {
		out = append(out, name)
	}
	sort.Strings(out[1:])
	return out
}

func (m *baseModifier) IdentifyModifiableParameters(records RecordGraph) map[string][]Match {
	out := make(map[string][]Match)
	for _, objectType := range m.objectTypes {
		for _, rec := range recordsOf(records, objectType) {
			for _, field := range rec.Fields {
				def, ok := m.registry.LookupField(m.category, rec.ObjectType, field)
				if !ok {
					continue
				}
				current, note, ok := resolveCurrent(field)
				if !ok {
					m.log.Debug("skipping unresolvable field", "category", m.category, "object", rec.Name, "field", field.Name, "index", field.Index)
					continue
				}
				if note != "" {
					m.log.Warn("numeric cache disagrees with raw value", "category", m.category, "object", rec.Name, "parameter", def.Key, "detail", note)
				}
				out[objectType] = append(out[objectType], Match{
					Record:      rec,
					Field:       field,
					Definition:  def,
					Current:     current,
					Discrepancy: note,
				})
			}
		}
	}
	return out
}

func (m *baseModifier) Apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string) []ModificationResult {
	return m.apply(ctx, records, cfg, strategy, nil)
}

type configEntry struct {
	key  string
	def  ParameterDefinition
	conf domain.ParameterConfig
}

// pendingChange is a computed candidate awaiting domain-rule evaluation.
type pendingChange struct {
	entry  configEntry
	pos    int
	before Value
	after  Value
	notes  []string
}

// apply runs the shared cycle; recordRules are category rules evaluated with the
// engine's rules against each staged record.
func (m *baseModifier) apply(ctx context.Context, records RecordGraph, cfg CategoryConfig, strategy string, recordRules []Rule) []ModificationResult {
	entries, results := m.resolveConfig(cfg, strategy)
	if len(entries) == 0 {
		return results
	}
	for _, objectType := range m.objectTypes {
		for _, rec := range recordsOf(records, objectType) {
			results = append(results, m.applyRecord(ctx, rec, entries, recordRules)...)
		}
	}
	return results
}

func (m *baseModifier) applyRecord(ctx context.Context, rec *ParsedRecord, entries []configEntry, recordRules []Rule) []ModificationResult {
	var results []ModificationResult
	var pending []pendingChange
	for _, entry := range entries {
		if !sameObjectType(entry.def.ObjectType, rec.ObjectType) {
			continue
		}
		pos, ok := rec.Find(entry.def.Field)
		if !ok {
			m.log.Debug("record lacks configured field", "category", m.category, "object", rec.Name, "parameter", entry.def.Key)
			continue
		}
		before, discrepancy, ok := resolveCurrent(rec.Fields[pos])
		if !ok {
			m.log.Debug("skipping unresolvable field", "category", m.category, "object", rec.Name, "parameter", entry.def.Key)
			continue
		}
		var notes []string
		if discrepancy != "" {
			m.log.Warn("numeric cache disagrees with raw value", "category", m.category, "object", rec.Name, "parameter", entry.def.Key, "detail", discrepancy)
			notes = append(notes, discrepancy)
		}
		candidate, err := m.calc.Compute(before, entry.conf.ModificationSpec)
		if err != nil {
			results = append(results, m.result(rec, entry, before, before, domain.StatusError, "", append(notes, err.Error())))
			continue
		}
		coerced, err := Coerce(entry.def, candidate)
		if err != nil {
			results = append(results, m.result(rec, entry, before, candidate, domain.StatusInvalid, "", append(notes, err.Error())))
			continue
		}
		constrained, note, err := EnforceFieldConstraints(entry.def, coerced)
		if err != nil {
			results = append(results, m.result(rec, entry, before, coerced, domain.StatusInvalid, "", append(notes, err.Error())))
			continue
		}
		if note != "" {
			notes = append(notes, note)
		}
		pending = append(pending, pendingChange{entry: entry, pos: pos, before: before, after: constrained, notes: notes})
	}
	if len(pending) == 0 {
		return results
	}

	accepted, rejected := m.evaluateRules(ctx, rec, pending, recordRules)
	results = append(results, rejected...)
	for _, p := range accepted {
		rec.Set(p.pos, p.after)
		results = append(results, m.result(rec, p.entry, p.before, p.after, domain.StatusValid, "", p.notes))
	}
	return results
}

// evaluateRules runs domain rules over the staged record. Parameter-scoped
// violations drop that change and the remaining set is re-evaluated, so
// record-wide rules judge only the changes that would actually be written.
// Every pass either shrinks the active set or returns.
func (m *baseModifier) evaluateRules(ctx context.Context, rec *ParsedRecord, pending []pendingChange, recordRules []Rule) ([]pendingChange, []ModificationResult) {
	var rejected []ModificationResult
	active := pending
	for len(active) > 0 {
		view := m.stage(rec, active)
		changes := make([]Change, len(active))
		for i, p := range active {
			changes[i] = Change{Parameter: p.entry.def.Key, Field: p.entry.def.Field, Before: p.before, After: p.after}
		}
		res, err := m.evaluate(ctx, view, changes, recordRules)
		if err != nil {
			for _, p := range active {
				rejected = append(rejected, m.result(rec, p.entry, p.before, p.after, domain.StatusError, "", append(p.notes, err.Error())))
			}
			return nil, rejected
		}

		blocked := make(map[string]Violation)
		var recordWide *Violation
		for i, v := range res.Violations {
			if v.Severity != SeverityBlock {
				continue
			}
			if v.Parameter == "" {
				if recordWide == nil {
					recordWide = &res.Violations[i]
				}
				continue
			}
			if _, seen := blocked[v.Parameter]; !seen {
				blocked[v.Parameter] = v
			}
		}

		if len(blocked) > 0 {
			next := active[:0:0]
			for _, p := range active {
				if v, ok := blocked[p.entry.def.Key]; ok {
					rejected = append(rejected, m.result(rec, p.entry, p.before, p.after, domain.StatusInvalid, v.Rule, append(p.notes, blockedMessage(v))))
					continue
				}
				next = append(next, p)
			}
			if len(next) < len(active) {
				active = next
				continue
			}
			// No staged change carries the blocked parameter, so the
			// violation applies to the record as a whole.
			if recordWide == nil {
				for i := range res.Violations {
					if res.Violations[i].Severity == SeverityBlock {
						recordWide = &res.Violations[i]
						break
					}
				}
			}
		}
		if recordWide != nil {
			for _, p := range active {
				rejected = append(rejected, m.result(rec, p.entry, p.before, p.after, domain.StatusInvalid, recordWide.Rule, append(p.notes, blockedMessage(*recordWide))))
			}
			return nil, rejected
		}
		for _, v := range res.Violations {
			for i := range active {
				if v.Parameter == "" || v.Parameter == active[i].entry.def.Key {
					active[i].notes = append(active[i].notes, "warning: "+v.Message)
				}
			}
		}
		return active, rejected
	}
	return nil, rejected
}

// blockedMessage renders a blocking violation as RuleViolationError reports it.
func blockedMessage(v Violation) string {
	return RuleViolationError{Result: Result{Violations: []Violation{v}}}.Error()
}

func (m *baseModifier) evaluate(ctx context.Context, view RuleView, changes []Change, recordRules []Rule) (Result, error) {
	combined, err := m.rules.Evaluate(ctx, view, changes)
	if err != nil {
		return Result{}, err
	}
	for _, rule := range recordRules {
		res, err := rule.Evaluate(ctx, view, changes)
		if err != nil {
			return Result{}, fmt.Errorf("rule %s: %w", rule.Name(), err)
		}
		combined.Merge(res)
	}
	return combined, nil
}

func (m *baseModifier) stage(rec *ParsedRecord, changes []pendingChange) stagedView {
	staged := rec.Clone()
	for _, p := range changes {
		staged.Set(p.pos, p.after)
	}
	return stagedView{category: m.category, record: staged, registry: m.registry}
}

// resolveConfig overlays the configuration on the strategy preset and orders
// entries by registry declaration. Unknown keys yield error results.
func (m *baseModifier) resolveConfig(cfg CategoryConfig, strategy string) ([]configEntry, []ModificationResult) {
	byDef := make(map[string]configEntry)
	var results []ModificationResult
	collect := func(source CategoryConfig, reportUnknown bool) {
		for _, key := range sortedKeys(source) {
			conf := source[key]
			def, ok := m.registry.Lookup(m.category, key)
			if !ok {
				if reportUnknown && conf.IsEnabled() {
					results = append(results, ModificationResult{
						Category:         m.category,
						Parameter:        key,
						Method:           conf.Method,
						ValidationStatus: domain.StatusError,
						Message:          fmt.Sprintf("%v: %q in category %s", domain.ErrUnknownParameter, key, m.category),
					})
				}
				continue
			}
			byDef[def.Key] = configEntry{key: key, def: def, conf: conf}
		}
	}
	if strategy != "" && strategy != defaultStrategy {
		preset, ok := m.presets[strategy]
		if !ok {
			m.log.Warn("unknown strategy, applying configuration only", "category", m.category, "strategy", strategy)
		}
		collect(preset, false)
	}
	collect(cfg, true)

	var entries []configEntry
	for _, def := range m.registry.Define(m.category) {
		entry, ok := byDef[def.Key]
		if !ok || !entry.conf.IsEnabled() {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, results
}

func (m *baseModifier) result(rec *ParsedRecord, entry configEntry, before, after Value, status domain.ValidationStatus, rule string, notes []string) ModificationResult {
	return ModificationResult{
		Success:          status == domain.StatusValid,
		Category:         m.category,
		ObjectType:       rec.ObjectType,
		ObjectName:       rec.Name,
		Parameter:        entry.def.Key,
		OriginalValue:    before,
		NewValue:         after,
		Method:           entry.conf.Method,
		Rule:             rule,
		ValidationStatus: status,
		Message:          strings.Join(notes, "; "),
	}
}

// stagedView exposes a staged record to domain rules.
type stagedView struct {
	category Category
	record   ParsedRecord
	registry *Registry
}

func (v stagedView) Category() Category   { return v.category }
func (v stagedView) Record() ParsedRecord { return v.record.Clone() }
func (v stagedView) Definition(parameter string) (ParameterDefinition, bool) {
	return v.registry.Lookup(v.category, parameter)
}

// resolveCurrent prefers the cached numeric value, falling back to the raw
// string. When both parse but disagree the numeric value wins and a note is
// returned. ok is false for empty fields.
func resolveCurrent(f domain.Field) (Value, string, bool) {
	raw := strings.TrimSpace(f.Raw)
	if f.Numeric != nil {
		if parsed, ok := domain.Text(raw).Float(); ok && parsed != *f.Numeric {
			return domain.Number(*f.Numeric), fmt.Sprintf("cached numeric %g disagrees with raw %q; using numeric", *f.Numeric, f.Raw), true
		}
		return domain.Number(*f.Numeric), "", true
	}
	if raw == "" {
		return Value{}, "", false
	}
	if parsed, ok := domain.Text(raw).Float(); ok {
		return domain.Number(parsed), "", true
	}
	return domain.Text(raw), "", true
}

// recordsOf returns the graph's records of objectType, matching keys
// case-insensitively, in deterministic key order.
func recordsOf(graph RecordGraph, objectType string) []*ParsedRecord {
	var out []*ParsedRecord
	for _, key := range graph.ObjectTypes() {
		if !sameObjectType(key, objectType) {
			continue
		}
		for _, rec := range graph[key] {
			if rec != nil {
				out = append(out, rec)
			}
		}
	}
	return out
}

func sortedKeys(cfg CategoryConfig) []string {
	keys := make([]string, 0, len(cfg))
	for k := range cfg {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
