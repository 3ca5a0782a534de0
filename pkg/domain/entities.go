// Package domain defines the building-model records, parameter definitions,
// modification results and audit types shared by the variant engine.
package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Category groups record types that share a modifier implementation.
type Category string

// Built-in modifier categories.
const (
	// CategoryGeometry covers zone and fenestration multipliers and heights.
	CategoryGeometry Category = "geometry"
	// CategoryVentilation covers outdoor air and zone ventilation objects.
	CategoryVentilation Category = "ventilation"
	// CategoryLighting covers interior lighting power and heat fractions.
	CategoryLighting Category = "lighting"
	// CategoryEquipment covers plug and process loads.
	CategoryEquipment Category = "equipment"
	// CategoryEnvelope covers opaque materials and simple glazing systems.
	CategoryEnvelope Category = "envelope"
	// CategoryHVAC covers coils, fans and ideal loads systems.
	CategoryHVAC Category = "hvac"
	// CategoryInfiltration covers zone infiltration objects.
	CategoryInfiltration Category = "infiltration"
	// CategoryDHW covers domestic hot water heaters and fixtures.
	CategoryDHW Category = "dhw"
)

// DataType is the declared storage type of a modifiable field.
type DataType string

// Supported data types.
const (
	DataTypeInteger DataType = "integer"
	DataTypeFloat   DataType = "float"
	DataTypeString  DataType = "string"
	DataTypeEnum    DataType = "enum"
)

// Numeric reports whether values of this type are stored as numbers.
func (t DataType) Numeric() bool {
	return t == DataTypeInteger || t == DataTypeFloat
}

// FieldRef addresses a record field either by name or by positional index.
// Exactly one of the two forms is set; construct with ByName or ByIndex.
type FieldRef struct {
	name    string
	index   int
	byIndex bool
}

// ByName references a field by its declared name.
func ByName(name string) FieldRef { return FieldRef{name: name} }

// ByIndex references a field by its zero-based position.
func ByIndex(index int) FieldRef { return FieldRef{index: index, byIndex: true} }

// Name returns the referenced field name and true for name references.
func (r FieldRef) Name() (string, bool) { return r.name, !r.byIndex }

// Index returns the referenced position and true for index references.
func (r FieldRef) Index() (int, bool) { return r.index, r.byIndex }

// IsZero reports whether the reference was never set.
func (r FieldRef) IsZero() bool { return !r.byIndex && r.name == "" }

func (r FieldRef) String() string {
	if r.byIndex {
		return "#" + strconv.Itoa(r.index)
	}
	return r.name
}

// Matches reports whether the field is addressed by this reference. Name
// references fall back to the normalized key when the exact name differs.
func (r FieldRef) Matches(f Field) bool {
	if r.byIndex {
		return f.Index == r.index
	}
	if f.Name == r.name {
		return true
	}
	return NormalizeKey(f.Name) == NormalizeKey(r.name)
}

// NormalizeKey lower-cases the key, trims it and converts whitespace runs to underscores.
func NormalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), "_")
}

// Value is a field value that is either numeric or textual.
type Value struct {
	num   float64
	str   string
	isNum bool
}

// Number constructs a numeric value.
func Number(v float64) Value { return Value{num: v, isNum: true} }

// Text constructs a textual value.
func Text(s string) Value { return Value{str: s} }

// IsNumber reports whether the value is numeric.
func (v Value) IsNumber() bool { return v.isNum }

// Float returns the numeric value. When the value is textual the string is parsed.
func (v Value) Float() (float64, bool) {
	if v.isNum {
		return v.num, true
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Equal compares kind and content.
func (v Value) Equal(o Value) bool {
	if v.isNum != o.isNum {
		return false
	}
	if v.isNum {
		return v.num == o.num
	}
	return v.str == o.str
}

func (v Value) String() string {
	if v.isNum {
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	}
	return v.str
}

// MarshalJSON encodes numbers as JSON numbers and text as JSON strings.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.isNum {
		return json.Marshal(v.num)
	}
	return json.Marshal(v.str)
}

// UnmarshalJSON accepts JSON numbers or strings.
func (v *Value) UnmarshalJSON(b []byte) error {
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		*v = Number(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("value must be a number or string: %w", err)
	}
	*v = Text(s)
	return nil
}

// UnmarshalYAML accepts YAML scalars; numeric scalars become numbers.
func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case int:
		*v = Number(float64(t))
	case int64:
		*v = Number(float64(t))
	case float64:
		*v = Number(t)
	case string:
		*v = Text(t)
	case bool:
		*v = Text(strconv.FormatBool(t))
	default:
		return fmt.Errorf("unsupported value %v", raw)
	}
	return nil
}

// ParameterDefinition describes one modifiable field of an object type.
type ParameterDefinition struct {
	Key           string
	Category      Category
	ObjectType    string
	Field         FieldRef
	DataType      DataType
	Units         string
	Min           *float64
	Max           *float64
	AllowedValues []Value
	DependsOn     []string
	Impact        string
}

// Clone returns a copy that shares no mutable state with the receiver.
func (d ParameterDefinition) Clone() ParameterDefinition {
	out := d
	if d.Min != nil {
		m := *d.Min
		out.Min = &m
	}
	if d.Max != nil {
		m := *d.Max
		out.Max = &m
	}
	out.AllowedValues = append([]Value(nil), d.AllowedValues...)
	out.DependsOn = append([]string(nil), d.DependsOn...)
	return out
}

// Bound is a helper for declaring Min/Max.
func Bound(v float64) *float64 { return &v }
