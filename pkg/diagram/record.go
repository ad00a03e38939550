package diagram

// Geometry is the position and size of a diagram element in diagram units.
type Geometry struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the point (x, y) lies inside the rectangle, borders included.
func (g Geometry) Contains(x, y float64) bool {
	return g.X <= x && x <= g.X+g.Width && g.Y <= y && y <= g.Y+g.Height
}

// ShapeRecord is one raw element of a diagram: a box, a free text label,
// a connector, or anything else the container format holds.
type ShapeRecord struct {
	ID       string    `json:"id"`
	Source   string    `json:"source,omitempty"` // Connector source shape ID
	Target   string    `json:"target,omitempty"` // Connector target shape ID
	Value    string    `json:"value"`
	Style    string    `json:"style"`
	Geometry *Geometry `json:"geometry,omitempty"` // nil when the record has no geometry
	Page     string    `json:"page,omitempty"`     // Diagram page name, informational
}

// IsConnector returns true if the record links two shapes
func (r ShapeRecord) IsConnector() bool {
	return r.Source != "" && r.Target != ""
}

// Edge is a connector between two shapes, captured verbatim from its record.
type Edge struct {
	SourceID string `json:"sourceId"`
	TargetID string `json:"targetId"`
	Label    string `json:"label"`
	Style    string `json:"style"`
}
