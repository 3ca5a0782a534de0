package core

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"variantcore/internal/tracker"
	"variantcore/pkg/domain"
)

// Service drives category modifiers over record graphs. It owns the parameter
// registry, the shared rules engine and the modifier factories; every worker
// builds its own ModifierSet from them.
type Service struct {
	registry  *Registry
	engine    *RulesEngine
	factories map[Category]ModifierFactory
	presets   map[Category]map[string]CategoryConfig
	plugins   map[string]PluginMetadata
	pending   []Plugin
	logger    Logger
	metrics   MetricsRecorder
	tracer    Tracer
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithPlugins installs plugins while the service is constructed.
func WithPlugins(plugins ...Plugin) ServiceOption {
	return func(s *Service) { s.pending = append(s.pending, plugins...) }
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsRecorder sets the operation metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithTracer sets the span tracer.
func WithTracer(t Tracer) ServiceOption {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithRulesEngine replaces the shared rules engine. Plugin rules are
// registered on it.
func WithRulesEngine(engine *RulesEngine) ServiceOption {
	return func(s *Service) {
		if engine != nil {
			s.engine = engine
		}
	}
}

// NewService builds the registry from the built-in catalogs and every plugin
// contribution.
func NewService(opts ...ServiceOption) (*Service, error) {
	s := &Service{
		engine:    NewRulesEngine(),
		factories: BuiltinModifiers(),
		presets:   BuiltinStrategies(),
		plugins:   make(map[string]PluginMetadata),
		logger:    noopLogger{},
		metrics:   noopMetrics{},
		tracer:    noopTracer{},
	}
	for _, opt := range opts {
		opt(s)
	}

	catalogs := BuiltinCatalogs()
	for _, plugin := range s.pending {
		registry, err := s.installPlugin(plugin)
		if err != nil {
			return nil, err
		}
		catalogs = append(catalogs, registry.Catalogs()...)
	}
	s.pending = nil

	registry, err := NewRegistry(catalogs...)
	if err != nil {
		return nil, fmt.Errorf("build parameter registry: %w", err)
	}
	s.registry = registry
	return s, nil
}

func (s *Service) installPlugin(plugin Plugin) (*PluginRegistry, error) {
	if plugin == nil {
		return nil, fmt.Errorf("plugin cannot be nil")
	}
	if _, ok := s.plugins[plugin.Name()]; ok {
		return nil, fmt.Errorf("plugin %s already registered", plugin.Name())
	}
	registry := NewPluginRegistry()
	if err := plugin.Register(registry); err != nil {
		return nil, fmt.Errorf("register plugin %s: %w", plugin.Name(), err)
	}
	for _, rule := range registry.Rules() {
		s.engine.Register(rule)
	}
	for category, presets := range registry.strategies {
		if s.presets[category] == nil {
			s.presets[category] = make(map[string]CategoryConfig)
		}
		for name, cfg := range presets {
			if _, exists := s.presets[category][name]; exists {
				return nil, fmt.Errorf("plugin %s: strategy %s/%s already defined", plugin.Name(), category, name)
			}
			s.presets[category][name] = cfg
		}
	}
	for category, factory := range registry.modifiers {
		s.factories[category] = factory
	}
	meta := registry.metadata(plugin)
	s.plugins[plugin.Name()] = meta
	s.logger.Info("plugin installed", "plugin", meta.Name, "version", meta.Version)
	return registry, nil
}

// RegisteredPlugins returns metadata describing installed plugins sorted by name.
func (s *Service) RegisteredPlugins() []PluginMetadata {
	out := make([]PluginMetadata, 0, len(s.plugins))
	for _, meta := range s.plugins {
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Registry returns the parameter registry.
func (s *Service) Registry() *Registry { return s.registry }

// Categories returns every category with a modifier, sorted.
func (s *Service) Categories() []Category {
	out := make([]Category, 0, len(s.factories))
	for c := range s.factories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strategies returns the preset names available for category including the
// configuration-only strategy.
func (s *Service) Strategies(category Category) []string {
	out := []string{defaultStrategy}
	names := make([]string, 0, len(s.presets[category]))
	for name := range s.presets[category] {
		names = append(names, name)
	}
	sort.Strings(names)
	return append(out, names...)
}

// NewModifierSet builds a dispatch table whose modifiers share one calculator
// seeded with seed.
func (s *Service) NewModifierSet(seed uint64) *ModifierSet {
	calc := NewCalculator(NewSeededSource(seed))
	set := &ModifierSet{modifiers: make(map[Category]Modifier, len(s.factories))}
	for category, factory := range s.factories {
		set.modifiers[category] = factory(ModifierDeps{
			Registry:   s.registry,
			Calculator: calc,
			Rules:      s.engine,
			Presets:    s.presets[category],
			Logger:     s.logger,
		})
	}
	return set
}

// ApplyCategory runs one category modifier over records in place.
func (s *Service) ApplyCategory(ctx context.Context, records RecordGraph, category Category, cfg CategoryConfig, strategy string, seed uint64) ([]ModificationResult, error) {
	var results []ModificationResult
	err := s.run(ctx, "apply_category", func(ctx context.Context) error {
		mod, ok := s.NewModifierSet(seed).Modifier(category)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCategory, category)
		}
		results = mod.Apply(ctx, records, cfg, strategy)
		return nil
	})
	return results, err
}

// VariantPlan describes a batch of variants generated from one base graph.
type VariantPlan struct {
	Count int
	// Categories are applied in order; empty applies every category sorted by name.
	Categories []Category
	// Strategy applies to every category unless Strategies names one for it.
	Strategy   string
	Strategies map[Category]string
	Config     ModificationConfig
	// Seed for variant i is Seed+i.
	Seed    uint64
	Workers int
	// SessionID starts a new session on the tracker when set or when the
	// tracker has none.
	SessionID     string
	BuildingID    string
	BaseModelRef  string
	VariantPrefix string
	// Sink stores each finished graph; its reference becomes the variant's output.
	Sink VariantSink
}

// VariantSink persists a generated record graph and returns its reference.
type VariantSink interface {
	StoreVariant(ctx context.Context, sessionID, variantID string, records RecordGraph) (string, error)
}

// VariantOutput is one generated variant.
type VariantOutput struct {
	ID        string
	Records   RecordGraph
	Results   []ModificationResult
	OutputRef string
	Err       error
}

func (p VariantPlan) variantID(i int) string {
	prefix := p.VariantPrefix
	if prefix == "" {
		prefix = "variant"
	}
	return fmt.Sprintf("%s_%03d", prefix, i)
}

func (p VariantPlan) strategyFor(category Category) string {
	if name, ok := p.Strategies[category]; ok {
		return name
	}
	return p.Strategy
}

// GenerateVariants produces plan.Count independent variants of base. Each
// variant works on its own deep copy with its own random source and tracker;
// worker histories are merged into tr in timestamp order. A failing variant
// never aborts the batch. Cancelling ctx stops new variants from starting.
func (s *Service) GenerateVariants(ctx context.Context, base RecordGraph, plan VariantPlan, tr *tracker.Tracker) ([]VariantOutput, error) {
	var outputs []VariantOutput
	err := s.run(ctx, "generate_variants", func(ctx context.Context) error {
		var err error
		outputs, err = s.generate(ctx, base, plan, tr)
		return err
	})
	return outputs, err
}

func (s *Service) generate(ctx context.Context, base RecordGraph, plan VariantPlan, tr *tracker.Tracker) ([]VariantOutput, error) {
	if tr == nil {
		return nil, fmt.Errorf("tracker required")
	}
	if plan.Count <= 0 {
		return nil, fmt.Errorf("variant count must be positive, got %d", plan.Count)
	}
	categories := plan.Categories
	if len(categories) == 0 {
		categories = s.Categories()
	}
	for _, c := range categories {
		if _, ok := s.factories[c]; !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCategory, c)
		}
	}
	if _, active := tr.Session(); plan.SessionID != "" || !active {
		tr.StartSession(plan.SessionID, plan.BuildingID, plan.BaseModelRef)
	}

	workers := plan.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	workers = min(workers, plan.Count)

	outputs := make([]VariantOutput, plan.Count)
	forks := make([]*tracker.Tracker, plan.Count)
	var g errgroup.Group
	g.SetLimit(workers)
	submitted := 0
	for i := range plan.Count {
		if ctx.Err() != nil {
			break
		}
		fork, err := tr.Fork()
		if err != nil {
			return nil, err
		}
		forks[i] = fork
		submitted++
		g.Go(func() error {
			outputs[i] = s.runVariant(ctx, i, base, plan, categories, fork)
			return nil
		})
	}
	_ = g.Wait()

	if err := tracker.Merge(tr, forks[:submitted]...); err != nil {
		return outputs[:submitted], fmt.Errorf("merge variant histories: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return outputs[:submitted], err
	}
	return outputs, nil
}

func (s *Service) runVariant(ctx context.Context, i int, base RecordGraph, plan VariantPlan, categories []Category, tr *tracker.Tracker) (out VariantOutput) {
	out.ID = plan.variantID(i)
	if err := tr.StartVariant(out.ID); err != nil {
		out.Err = err
		return out
	}
	fail := func(err error) {
		out.Err = err
		s.logger.Error("variant failed", "variant", out.ID, "error", err)
		if ferr := tr.FailVariant(out.ID, err.Error()); ferr != nil {
			s.logger.Warn("variant already terminal", "variant", out.ID, "error", ferr)
		}
	}
	defer func() {
		if r := recover(); r != nil {
			fail(fmt.Errorf("panic: %v", r))
		}
	}()

	out.Records = base.Clone()
	set := s.NewModifierSet(plan.Seed + uint64(i))
	for _, category := range categories {
		if err := ctx.Err(); err != nil {
			fail(err)
			return out
		}
		mod, _ := set.Modifier(category)
		results := mod.Apply(ctx, out.Records, plan.Config[category], plan.strategyFor(category))
		for _, r := range results {
			if err := tr.AddModification(out.ID, r); err != nil {
				fail(err)
				return out
			}
		}
		out.Results = append(out.Results, results...)
	}

	if plan.Sink != nil {
		session, _ := tr.Session()
		ref, err := plan.Sink.StoreVariant(ctx, session.ID, out.ID, out.Records)
		if err != nil {
			fail(fmt.Errorf("store variant: %w", err))
			return out
		}
		out.OutputRef = ref
	}
	if err := tr.CompleteVariant(out.ID, out.OutputRef); err != nil {
		out.Err = err
	}
	return out
}

// run wraps an operation with tracing and metrics.
func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	err := fn(ctx)
	span.End(err)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	return err
}
