package core

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"variantcore/pkg/domain"
)

// fixedSource returns mid-range samples and the last option.
type fixedSource struct {
	f float64
}

func (s fixedSource) Float64() float64 { return s.f }
func (s fixedSource) IntN(n int) int   { return n - 1 }

func numField(name string, index int, v float64) domain.Field {
	return domain.Field{Name: name, Index: index, Raw: strconv.FormatFloat(v, 'g', -1, 64), Numeric: &v}
}

func textField(name string, index int, raw string) domain.Field {
	return domain.Field{Name: name, Index: index, Raw: raw}
}

func record(objectType, name string, fields ...domain.Field) *ParsedRecord {
	return &ParsedRecord{ObjectType: objectType, Name: name, Fields: fields}
}

func graphOf(records ...*ParsedRecord) RecordGraph {
	g := RecordGraph{}
	for _, r := range records {
		g[r.ObjectType] = append(g[r.ObjectType], r)
	}
	return g
}

func absoluteCfg(v float64) domain.ParameterConfig {
	return absolute(v)
}

func factorCfg(f float64) domain.ParameterConfig {
	return domain.ParameterConfig{ModificationSpec: domain.ModificationSpec{Method: domain.MethodMultiplier, Factor: &f}}
}

func builtinRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(BuiltinCatalogs()...)
	if err != nil {
		t.Fatalf("builtin registry: %v", err)
	}
	return reg
}

func newTestModifier(t *testing.T, factory ModifierFactory, engine *RulesEngine, log Logger) Modifier {
	t.Helper()
	return factory(ModifierDeps{
		Registry:   builtinRegistry(t),
		Calculator: NewCalculator(fixedSource{f: 0.5}),
		Rules:      engine,
		Presets:    nil,
		Logger:     log,
	})
}

func fieldRaw(t *testing.T, rec *ParsedRecord, name string) string {
	t.Helper()
	pos, ok := rec.Find(domain.ByName(name))
	if !ok {
		t.Fatalf("record %s has no field %s", rec.Name, name)
	}
	return rec.Fields[pos].Raw
}

type logEntry struct {
	level string
	msg   string
}

type captureLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *captureLogger) add(level, msg string) {
	l.mu.Lock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
	l.mu.Unlock()
}

func (l *captureLogger) Debug(msg string, _ ...any) { l.add("debug", msg) }
func (l *captureLogger) Info(msg string, _ ...any)  { l.add("info", msg) }
func (l *captureLogger) Warn(msg string, _ ...any)  { l.add("warn", msg) }
func (l *captureLogger) Error(msg string, _ ...any) { l.add("error", msg) }

func (l *captureLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

type staticRule struct {
	name      string
	violation Violation
	err       error
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(_ context.Context, _ RuleView, changes []Change) (Result, error) {
	if r.err != nil {
		return Result{}, r.err
	}
	if len(changes) == 0 {
		return Result{}, nil
	}
	v := r.violation
	v.Rule = r.name
	return Result{Violations: []Violation{v}}, nil
}

func errBoom() error { return fmt.Errorf("boom") }
