package model

import "sort"

// RelationshipKind is the semantic category of a connector between two classes
type RelationshipKind string

const (
	Expands RelationshipKind = "EXPANDS" // Source extends target
	Depends RelationshipKind = "DEPENDS" // Source references target (non-owning, scalar)
	Have    RelationshipKind = "HAVE"    // Source owns target
	PartOf  RelationshipKind = "PART_OF" // Target owns source; field lands on the target
	Unknown RelationshipKind = "UNKNOWN" // No recognised pattern; classified but not applied
)

// Multiplicity is the cardinality hint parsed from a connector label
type Multiplicity string

const (
	One  Multiplicity = "1"
	Many Multiplicity = "*"
)

// FieldDef is a field of a generated class
type FieldDef struct {
	Type         string `json:"type"`         // Class name of the referenced class
	Name         string `json:"name"`         // Field name, unique within its class
	IsCollection bool   `json:"isCollection"` // True for one-to-many fields
}

// ClassDef is the model of one class: its name, optional parent and fields
type ClassDef struct {
	Name   string     `json:"name"`
	Parent string     `json:"parent,omitempty"` // Empty when the class extends nothing
	Fields []FieldDef `json:"fields"`
}

// NewClassDef creates an empty class definition
func NewClassDef(name string) *ClassDef {
	return &ClassDef{
		Name:   name,
		Fields: make([]FieldDef, 0),
	}
}

// HasField returns true if a field with the given name exists
func (c *ClassDef) HasField(name string) bool {
	for _, f := range c.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// AddField appends a field unless one with the same name already exists.
// Returns false when the field was dropped.
func (c *ClassDef) AddField(f FieldDef) bool {
	if c.HasField(f.Name) {
		return false
	}
	c.Fields = append(c.Fields, f)
	return true
}

// SetParent sets the parent class, replacing any earlier one.
// Returns the previous parent, or "" if there was none.
func (c *ClassDef) SetParent(parent string) string {
	previous := c.Parent
	c.Parent = parent
	return previous
}

// HasCollections returns true if any field is a collection
func (c *ClassDef) HasCollections() bool {
	for _, f := range c.Fields {
		if f.IsCollection {
			return true
		}
	}
	return false
}

// Relationship is a classified connector between two resolved classes
type Relationship struct {
	Source       string           `json:"source"`
	Target       string           `json:"target"`
	Kind         RelationshipKind `json:"kind"`
	Multiplicity Multiplicity     `json:"multiplicity"`
	Marked       bool             `json:"marked,omitempty"`
	Label        string           `json:"label,omitempty"`
	Rule         string           `json:"rule,omitempty"`
}

// ClassModel holds exactly one ClassDef per class name. Classes are never
// removed; mutation goes through the ClassDef methods.
type ClassModel struct {
	Name          string               `json:"name"` // Usually the diagram file name
	Classes       map[string]*ClassDef `json:"classes"`
	Order         []string             `json:"order"` // Class names in discovery order
	Relationships []Relationship       `json:"relationships"`
}

// NewClassModel creates an empty model
func NewClassModel(name string) *ClassModel {
	return &ClassModel{
		Name:          name,
		Classes:       make(map[string]*ClassDef),
		Order:         make([]string, 0),
		Relationships: make([]Relationship, 0),
	}
}

// Ensure returns the class with the given name, creating it if needed
func (m *ClassModel) Ensure(name string) *ClassDef {
	if c, exists := m.Classes[name]; exists {
		return c
	}
	c := NewClassDef(name)
	m.Classes[name] = c
	m.Order = append(m.Order, name)
	return c
}

// Class returns the class with the given name
func (m *ClassModel) Class(name string) (*ClassDef, bool) {
	c, ok := m.Classes[name]
	return c, ok
}

// Sorted returns all classes ordered by name
func (m *ClassModel) Sorted() []*ClassDef {
	names := make([]string, 0, len(m.Classes))
	for name := range m.Classes {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]*ClassDef, 0, len(names))
	for _, name := range names {
		result = append(result, m.Classes[name])
	}
	return result
}

// FieldCount returns the total number of fields across all classes
func (m *ClassModel) FieldCount() int {
	count := 0
	for _, c := range m.Classes {
		count += len(c.Fields)
	}
	return count
}

// CountByKind groups the recorded relationships by kind
func (m *ClassModel) CountByKind() map[RelationshipKind]int {
	counts := make(map[RelationshipKind]int)
	for _, r := range m.Relationships {
		counts[r.Kind]++
	}
	return counts
}
