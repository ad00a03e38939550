package model

import (
	"testing"
)

func TestAddField_FirstWriterWins(t *testing.T) {
	c := NewClassDef("A")

	if !c.AddField(FieldDef{Type: "B", Name: "b"}) {
		t.Fatal("Expected first field to be added")
	}
	if c.AddField(FieldDef{Type: "Other", Name: "b", IsCollection: true}) {
		t.Error("Expected duplicate field name to be dropped")
	}

	if len(c.Fields) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(c.Fields))
	}
	if c.Fields[0].Type != "B" || c.Fields[0].IsCollection {
		t.Errorf("Expected original field to survive, got %+v", c.Fields[0])
	}
}

func TestSetParent_LastWriterWins(t *testing.T) {
	c := NewClassDef("Dog")

	if prev := c.SetParent("Animal"); prev != "" {
		t.Errorf("Expected no previous parent, got %q", prev)
	}
	if prev := c.SetParent("Pet"); prev != "Animal" {
		t.Errorf("Expected previous parent Animal, got %q", prev)
	}
	if c.Parent != "Pet" {
		t.Errorf("Expected parent Pet, got %q", c.Parent)
	}
}

func TestClassModel_EnsureAndSorted(t *testing.T) {
	m := NewClassModel("test")

	m.Ensure("Zebra")
	m.Ensure("Apple")
	again := m.Ensure("Zebra")
	again.AddField(FieldDef{Type: "Apple", Name: "apple"})

	if len(m.Classes) != 2 {
		t.Fatalf("Expected 2 classes, got %d", len(m.Classes))
	}
	if m.Order[0] != "Zebra" || m.Order[1] != "Apple" {
		t.Errorf("Order = %v, want discovery order", m.Order)
	}

	sorted := m.Sorted()
	if sorted[0].Name != "Apple" || sorted[1].Name != "Zebra" {
		t.Errorf("Sorted() = %s, %s", sorted[0].Name, sorted[1].Name)
	}
	if m.FieldCount() != 1 {
		t.Errorf("FieldCount() = %d, want 1", m.FieldCount())
	}
}

func TestBuildGraph(t *testing.T) {
	m := NewClassModel("pets")
	m.Ensure("Dog").SetParent("Animal")
	m.Ensure("Animal")
	m.Relationships = append(m.Relationships,
		Relationship{Source: "Dog", Target: "Animal", Kind: Expands, Multiplicity: One},
		Relationship{Source: "Dog", Target: "Animal", Kind: Unknown, Multiplicity: Many, Label: "?*"},
	)

	g := BuildGraph(m)

	if len(g.Nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(g.Nodes))
	}
	if g.Nodes["Dog"].Parent != "Animal" {
		t.Errorf("Expected Dog parent Animal, got %q", g.Nodes["Dog"].Parent)
	}
	if len(g.Edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(g.Edges))
	}
	if g.Edges[1].Type != "UNKNOWN" || g.Edges[1].Metadata["multiplicity"] != "*" {
		t.Errorf("Unexpected second edge: %+v", g.Edges[1])
	}

	counts := m.CountByKind()
	if counts[Expands] != 1 || counts[Unknown] != 1 {
		t.Errorf("CountByKind() = %v", counts)
	}
}
