package model

// Graph is the class diagram as nodes and edges, the shape served to
// visualisation clients.
type Graph struct {
	Nodes map[string]*Node `json:"nodes"`
	Edges []*Edge          `json:"edges"`
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: make([]*Edge, 0),
	}
}

// Node represents a class in the graph.
type Node struct {
	ID       string                 `json:"id"`
	Label    string                 `json:"label"`
	Type     string                 `json:"type"`             // "class"
	Parent   string                 `json:"parent,omitempty"` // Superclass name
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Edge represents a directed relationship between two classes.
type Edge struct {
	Source   string                 `json:"source"`
	Target   string                 `json:"target"`
	Type     string                 `json:"type"` // Relationship kind, e.g. "EXPANDS", "HAVE"
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// AddNode adds a node to the graph. If a node with the same ID exists, it updates it.
func (g *Graph) AddNode(node *Node) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]interface{})
	}
	g.Nodes[node.ID] = node
}

// AddEdge adds an edge to the graph.
func (g *Graph) AddEdge(edge *Edge) {
	if edge.Metadata == nil {
		edge.Metadata = make(map[string]interface{})
	}
	g.Edges = append(g.Edges, edge)
}

// BuildGraph converts a class model into a graph. Every recorded
// relationship becomes an edge, including UNKNOWN ones.
func BuildGraph(m *ClassModel) *Graph {
	g := NewGraph()

	for _, c := range m.Sorted() {
		g.AddNode(&Node{
			ID:     c.Name,
			Label:  c.Name,
			Type:   "class",
			Parent: c.Parent,
			Metadata: map[string]interface{}{
				"fields": len(c.Fields),
			},
		})
	}

	for _, r := range m.Relationships {
		g.AddEdge(&Edge{
			Source: r.Source,
			Target: r.Target,
			Type:   string(r.Kind),
			Metadata: map[string]interface{}{
				"multiplicity": string(r.Multiplicity),
				"label":        r.Label,
			},
		})
	}

	return g
}
