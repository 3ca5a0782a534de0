package domain

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Field is one typed field of a parsed record.
type Field struct {
	Name    string   `json:"name"`
	Index   int      `json:"index"`
	Raw     string   `json:"raw"`
	Numeric *float64 `json:"numeric,omitempty"`
}

// ParsedRecord is one modifiable entity of the building-model graph.
type ParsedRecord struct {
	ObjectType string  `json:"object_type"`
	Name       string  `json:"name"`
	Fields     []Field `json:"fields"`
}

// Find returns the position of the first field matching ref.
func (r *ParsedRecord) Find(ref FieldRef) (int, bool) {
	if i, ok := ref.Index(); ok {
		for pos, f := range r.Fields {
			if f.Index == i {
				return pos, true
			}
		}
		return 0, false
	}
	name, _ := ref.Name()
	for pos, f := range r.Fields {
		if f.Name == name {
			return pos, true
		}
	}
	for pos, f := range r.Fields {
		if ref.Matches(f) {
			return pos, true
		}
	}
	return 0, false
}

// Set writes value into the field at pos, keeping the numeric cache in step.
func (r *ParsedRecord) Set(pos int, value Value) {
	f := &r.Fields[pos]
	f.Raw = value.String()
	if value.IsNumber() {
		n, _ := value.Float()
		f.Numeric = &n
		return
	}
	f.Numeric = nil
}

// Clone deep-copies the record.
func (r ParsedRecord) Clone() ParsedRecord {
	out := r
	out.Fields = make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		out.Fields[i] = f
		if f.Numeric != nil {
			n := *f.Numeric
			out.Fields[i].Numeric = &n
		}
	}
	return out
}

// RecordGraph maps object type to its ordered records.
type RecordGraph map[string][]*ParsedRecord

// Clone deep-copies every record so variant workers never share state.
func (g RecordGraph) Clone() RecordGraph {
	out := make(RecordGraph, len(g))
	for objectType, records := range g {
		cp := make([]*ParsedRecord, len(records))
		for i, rec := range records {
			if rec == nil {
				continue
			}
			c := rec.Clone()
			cp[i] = &c
		}
		out[objectType] = cp
	}
	return out
}

// ObjectTypes returns the graph's object types sorted.
func (g RecordGraph) ObjectTypes() []string {
	out := make([]string, 0, len(g))
	for k := range g {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Count returns the total number of records.
func (g RecordGraph) Count() int {
	n := 0
	for _, records := range g {
		n += len(records)
	}
	return n
}

// DecodeRecordGraph parses the JSON interchange form: an object keyed by object
// type holding arrays of records. Object types on records default to the key.
func DecodeRecordGraph(data []byte) (RecordGraph, error) {
	var raw map[string][]*ParsedRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode record graph: %w", err)
	}
	graph := make(RecordGraph, len(raw))
	for objectType, records := range raw {
		for i, rec := range records {
			if rec == nil {
				return nil, fmt.Errorf("decode record graph: %s[%d] is null", objectType, i)
			}
			if rec.ObjectType == "" {
				rec.ObjectType = objectType
			}
		}
		graph[objectType] = records
	}
	return graph, nil
}
