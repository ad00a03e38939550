package diagram

import "strings"

// ExtractEdges returns one Edge per record carrying both a source and a
// target, in record order. The label is trimmed; the style is kept verbatim.
func ExtractEdges(records []ShapeRecord) []Edge {
	edges := make([]Edge, 0)
	for _, r := range records {
		if !r.IsConnector() {
			continue
		}
		edges = append(edges, Edge{
			SourceID: r.Source,
			TargetID: r.Target,
			Label:    strings.TrimSpace(r.Value),
			Style:    r.Style,
		})
	}
	return edges
}
