package course

import "sort"

// Metadata holds the policy fields of a content node as authored (dates,
// grading policy, display name). Values are strings, matching the XML
// attribute model of course files.
type Metadata map[string]string

// InheritableFields lists the metadata fields a child content node inherits
// from its parent unless it authored the field itself.
var InheritableFields = []string{
	"graded",
	"start",
	"due",
	"graceperiod",
	"showanswer",
	"rerandomize",

	// Used to resolve static file references during import. Inherited so
	// every node in a course sees the same static root.
	"static_dir",
}

// Clone returns a copy of the metadata map.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Equal reports whether two metadata maps hold the same fields and values.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}
	for k, v := range m {
		if ov, ok := other[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// FieldSet tracks which descriptor metadata fields were inherited rather
// than authored, so authoring tools can tell the two apart.
type FieldSet map[string]struct{}

// NewFieldSet builds a FieldSet from field names.
func NewFieldSet(fields ...string) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Add records a field in the set.
func (s FieldSet) Add(field string) {
	s[field] = struct{}{}
}

// Contains reports whether the field is in the set.
func (s FieldSet) Contains(field string) bool {
	_, ok := s[field]
	return ok
}

// Equal reports whether two sets hold the same fields.
func (s FieldSet) Equal(other FieldSet) bool {
	if len(s) != len(other) {
		return false
	}
	for f := range s {
		if _, ok := other[f]; !ok {
			return false
		}
	}
	return true
}

// Sorted returns the fields in sorted order.
func (s FieldSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
