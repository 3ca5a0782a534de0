package core

import (
	"fmt"
	"sort"

	"variantcore/pkg/domain"
)

// Catalog is the set of parameter definitions contributed for one category.
type Catalog struct {
	Category    domain.Category
	Definitions []domain.ParameterDefinition
}

// Registry is the immutable catalog of modifiable parameters. It is built once
// and may be shared by concurrent readers.
type Registry struct {
	ordered map[domain.Category][]domain.ParameterDefinition
	byKey   map[domain.Category]map[string]int
	byNorm  map[domain.Category]map[string]int
}

// NewRegistry validates and indexes the supplied catalogs. Catalogs for the same
// category are concatenated in the order given.
func NewRegistry(catalogs ...Catalog) (*Registry, error) {
	r := &Registry{
		ordered: make(map[domain.Category][]domain.ParameterDefinition),
		byKey:   make(map[domain.Category]map[string]int),
		byNorm:  make(map[domain.Category]map[string]int),
	}
	for _, catalog := range catalogs {
		if catalog.Category == "" {
			return nil, fmt.Errorf("catalog category required")
		}
		for _, def := range catalog.Definitions {
			if err := r.add(catalog.Category, def); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

func (r *Registry) add(category domain.Category, def domain.ParameterDefinition) error {
	if def.Key == "" {
		return fmt.Errorf("%s: parameter key required", category)
	}
	if def.ObjectType == "" {
		return fmt.Errorf("%s.%s: object type required", category, def.Key)
	}
	if def.Field.IsZero() {
		return fmt.Errorf("%s.%s: field reference required", category, def.Key)
	}
	switch def.DataType {
	case domain.DataTypeInteger, domain.DataTypeFloat, domain.DataTypeString, domain.DataTypeEnum:
	default:
		return fmt.Errorf("%s.%s: unknown data type %q", category, def.Key, def.DataType)
	}
	if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
		return fmt.Errorf("%s.%s: minimum %g exceeds maximum %g", category, def.Key, *def.Min, *def.Max)
	}
	if def.DataType == domain.DataTypeEnum && len(def.AllowedValues) == 0 {
		return fmt.Errorf("%s.%s: enum parameters need allowed values", category, def.Key)
	}
	if r.byKey[category] == nil {
		r.byKey[category] = make(map[string]int)
		r.byNorm[category] = make(map[string]int)
	}
	if _, dup := r.byKey[category][def.Key]; dup {
		return fmt.Errorf("%s.%s: duplicate parameter", category, def.Key)
	}
	def = def.Clone()
	def.Category = category
	pos := len(r.ordered[category])
	r.ordered[category] = append(r.ordered[category], def)
	r.byKey[category][def.Key] = pos
	if _, taken := r.byNorm[category][domain.NormalizeKey(def.Key)]; !taken {
		r.byNorm[category][domain.NormalizeKey(def.Key)] = pos
	}
	if name, ok := def.Field.Name(); ok {
		if _, taken := r.byKey[category][name]; !taken {
			r.byKey[category][name] = pos
		}
		if _, taken := r.byNorm[category][domain.NormalizeKey(name)]; !taken {
			r.byNorm[category][domain.NormalizeKey(name)] = pos
		}
	}
	return nil
}

// Categories returns the registered categories sorted by name.
func (r *Registry) Categories() []domain.Category {
	out := make([]domain.Category, 0, len(r.ordered))
	for c := range r.ordered {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Define returns copies of every definition of the category in declaration order.
func (r *Registry) Define(category domain.Category) []domain.ParameterDefinition {
	defs := r.ordered[category]
	out := make([]domain.ParameterDefinition, len(defs))
	for i, def := range defs {
		out[i] = def.Clone()
	}
	return out
}

// Lookup resolves a parameter key or field name within a category. Exact
// matches win; otherwise the normalized key is tried.
func (r *Registry) Lookup(category domain.Category, key string) (domain.ParameterDefinition, bool) {
	if pos, ok := r.byKey[category][key]; ok {
		return r.ordered[category][pos].Clone(), true
	}
	if pos, ok := r.byNorm[category][domain.NormalizeKey(key)]; ok {
		return r.ordered[category][pos].Clone(), true
	}
	return domain.ParameterDefinition{}, false
}

// LookupField resolves the definition that governs a field of a record of
// objectType. Name references are matched exactly first, then by normalized key.
func (r *Registry) LookupField(category domain.Category, objectType string, field domain.Field) (domain.ParameterDefinition, bool) {
	var fallback *domain.ParameterDefinition
	for i := range r.ordered[category] {
		def := &r.ordered[category][i]
		if !sameObjectType(def.ObjectType, objectType) {
			continue
		}
		if idx, ok := def.Field.Index(); ok {
			if field.Index == idx {
				return def.Clone(), true
			}
			continue
		}
		name, _ := def.Field.Name()
		if name == field.Name {
			return def.Clone(), true
		}
		if fallback == nil && def.Field.Matches(field) {
			fallback = def
		}
	}
	if fallback != nil {
		return fallback.Clone(), true
	}
	return domain.ParameterDefinition{}, false
}

// ObjectTypes returns the distinct object types declared for the category in
// declaration order.
func (r *Registry) ObjectTypes(category domain.Category) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, def := range r.ordered[category] {
		key := domain.NormalizeKey(def.ObjectType)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, def.ObjectType)
	}
	return out
}

func sameObjectType(a, b string) bool {
	return a == b || domain.NormalizeKey(a) == domain.NormalizeKey(b)
}
