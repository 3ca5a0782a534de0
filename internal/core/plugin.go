package core

import (
	"fmt"
	"sort"
)

// Plugin describes an extension that contributes parameters, rules, strategy
// presets or modifiers.
type Plugin interface {
	Name() string
	Version() string
	Register(registry *PluginRegistry) error
}

// PluginRegistry accumulates plugin contributions during registration.
type PluginRegistry struct {
	rules      []Rule
	catalogs   []Catalog
	strategies map[Category]map[string]CategoryConfig
	modifiers  map[Category]ModifierFactory
}

// NewPluginRegistry constructs a plugin registry.
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{
		strategies: make(map[Category]map[string]CategoryConfig),
		modifiers:  make(map[Category]ModifierFactory),
	}
}

// RegisterRule adds a domain rule evaluated for every category.
func (r *PluginRegistry) RegisterRule(rule Rule) {
	if rule == nil {
		return
	}
	r.rules = append(r.rules, rule)
}

// RegisterParameters contributes parameter definitions to a category. The
// definitions are validated when the service builds its registry.
func (r *PluginRegistry) RegisterParameters(catalog Catalog) error {
	if catalog.Category == "" {
		return fmt.Errorf("parameter catalog category required")
	}
	if len(catalog.Definitions) == 0 {
		return fmt.Errorf("parameter catalog for %s is empty", catalog.Category)
	}
	r.catalogs = append(r.catalogs, Catalog{Category: catalog.Category, Definitions: append(catalog.Definitions[:0:0], catalog.Definitions...)})
	return nil
}

// RegisterStrategy stores a named preset for a category.
func (r *PluginRegistry) RegisterStrategy(category Category, name string, cfg CategoryConfig) error {
	if category == "" || name == "" {
		return fmt.Errorf("strategy category and name required")
	}
	if name == defaultStrategy {
		return fmt.Errorf("strategy name %q is reserved", name)
	}
	if r.strategies[category] == nil {
		r.strategies[category] = make(map[string]CategoryConfig)
	}
	if _, exists := r.strategies[category][name]; exists {
		return fmt.Errorf("strategy %s/%s already registered", category, name)
	}
	r.strategies[category][name] = cloneCategoryConfig(cfg)
	return nil
}

// RegisterModifier installs the modifier factory for a category, replacing the
// built-in one when present.
func (r *PluginRegistry) RegisterModifier(category Category, factory ModifierFactory) error {
	if category == "" || factory == nil {
		return fmt.Errorf("modifier category and factory required")
	}
	if _, exists := r.modifiers[category]; exists {
		return fmt.Errorf("modifier for %s already registered", category)
	}
	r.modifiers[category] = factory
	return nil
}

// Rules returns a copy of registered rules.
func (r *PluginRegistry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// Catalogs returns the contributed parameter catalogs in registration order.
func (r *PluginRegistry) Catalogs() []Catalog {
	return append([]Catalog(nil), r.catalogs...)
}

// Strategies returns the preset names registered per category, sorted.
func (r *PluginRegistry) Strategies() map[Category][]string {
	out := make(map[Category][]string, len(r.strategies))
	for category, presets := range r.strategies {
		names := make([]string, 0, len(presets))
		for name := range presets {
			names = append(names, name)
		}
		sort.Strings(names)
		out[category] = names
	}
	return out
}

// PluginMetadata stores metadata describing an installed plugin.
type PluginMetadata struct {
	Name       string
	Version    string
	Parameters map[Category][]string
	Strategies map[Category][]string
	Modifiers  []Category
	Rules      []string
}

func (r *PluginRegistry) metadata(p Plugin) PluginMetadata {
	meta := PluginMetadata{
		Name:       p.Name(),
		Version:    p.Version(),
		Parameters: make(map[Category][]string),
		Strategies: r.Strategies(),
	}
	for _, catalog := range r.catalogs {
		for _, def := range catalog.Definitions {
			meta.Parameters[catalog.Category] = append(meta.Parameters[catalog.Category], def.Key)
		}
	}
	for category := range r.modifiers {
		meta.Modifiers = append(meta.Modifiers, category)
	}
	sort.Slice(meta.Modifiers, func(i, j int) bool { return meta.Modifiers[i] < meta.Modifiers[j] })
	for _, rule := range r.rules {
		meta.Rules = append(meta.Rules, rule.Name())
	}
	return meta
}

func cloneCategoryConfig(cfg CategoryConfig) CategoryConfig {
	out := make(CategoryConfig, len(cfg))
	for k, v := range cfg {
		out[k] = v
	}
	return out
}
