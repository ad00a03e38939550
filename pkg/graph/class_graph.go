package graph

import (
	"sort"

	"github.com/ritzau/drawio-codegen/pkg/model"
	"gonum.org/v1/gonum/graph/simple"
)

// ClassGraph is the inheritance graph of a class model. Edges point from a
// class to the class it extends.
type ClassGraph struct {
	graph  *simple.DirectedGraph
	ids    map[string]int64 // Map from class name to graph ID
	names  map[int64]string // Map from graph ID to class name
	nextID int64
}

// NewClassGraph creates an empty inheritance graph
func NewClassGraph() *ClassGraph {
	return &ClassGraph{
		graph:  simple.NewDirectedGraph(),
		ids:    make(map[string]int64),
		names:  make(map[int64]string),
		nextID: 0,
	}
}

// AddClass adds a class to the graph
func (cg *ClassGraph) AddClass(name string) {
	if _, exists := cg.ids[name]; exists {
		return
	}

	cg.ids[name] = cg.nextID
	cg.names[cg.nextID] = name
	cg.graph.AddNode(simple.Node(cg.nextID))

	cg.nextID++
}

// AddExtends records that child extends parent. Self-extension is kept out
// of the gonum graph, which rejects self edges, and tracked separately.
func (cg *ClassGraph) AddExtends(child, parent string) {
	cg.AddClass(child)
	cg.AddClass(parent)

	childID := cg.ids[child]
	parentID := cg.ids[parent]
	if childID == parentID {
		return
	}

	if !cg.graph.HasEdgeFromTo(childID, parentID) {
		cg.graph.SetEdge(cg.graph.NewEdge(cg.graph.Node(childID), cg.graph.Node(parentID)))
	}
}

// NameOf returns the class name for a graph ID
func (cg *ClassGraph) NameOf(id int64) (string, bool) {
	name, ok := cg.names[id]
	return name, ok
}

// Graph returns the underlying directed graph
func (cg *ClassGraph) Graph() *simple.DirectedGraph {
	return cg.graph
}

// Classes returns all class names, sorted
func (cg *ClassGraph) Classes() []string {
	names := make([]string, 0, len(cg.ids))
	for name := range cg.ids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Edges returns all inheritance links as [child, parent] pairs, sorted
func (cg *ClassGraph) Edges() [][2]string {
	var edges [][2]string

	iter := cg.graph.Edges()
	for iter.Next() {
		edge := iter.Edge()
		edges = append(edges, [2]string{cg.names[edge.From().ID()], cg.names[edge.To().ID()]})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i][0] != edges[j][0] {
			return edges[i][0] < edges[j][0]
		}
		return edges[i][1] < edges[j][1]
	})
	return edges
}

// Subclasses returns the classes that directly extend the given class
func (cg *ClassGraph) Subclasses(name string) []string {
	id, exists := cg.ids[name]
	if !exists {
		return nil
	}

	var children []string
	iter := cg.graph.To(id)
	for iter.Next() {
		children = append(children, cg.names[iter.Node().ID()])
	}
	sort.Strings(children)
	return children
}

// Ancestors walks the parent chain of a class, nearest first. The walk stops
// when it would revisit a class, so inheritance cycles terminate.
func (cg *ClassGraph) Ancestors(name string) []string {
	id, exists := cg.ids[name]
	if !exists {
		return nil
	}

	var chain []string
	seen := map[int64]bool{id: true}
	for {
		iter := cg.graph.From(id)
		if !iter.Next() {
			return chain
		}
		// A class has at most one parent, so the first successor is it
		id = iter.Node().ID()
		if seen[id] {
			return chain
		}
		seen[id] = true
		chain = append(chain, cg.names[id])
	}
}

// BuildClassGraph builds the inheritance graph of a model
func BuildClassGraph(m *model.ClassModel) *ClassGraph {
	cg := NewClassGraph()

	for _, c := range m.Sorted() {
		cg.AddClass(c.Name)
		if c.Parent != "" {
			cg.AddExtends(c.Name, c.Parent)
		}
	}

	return cg
}
