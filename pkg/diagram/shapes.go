package diagram

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TextLabel is a free-floating text element positioned by its origin.
type TextLabel struct {
	ID    string
	X     float64
	Y     float64
	Value string
	order int // discovery order, used as the final tie-break
}

// Box is a bordered rectangle that may represent a class.
type Box struct {
	ID       string
	Geometry Geometry
	Value    string // Inline text, trimmed
	Style    string
}

// ClassInfo describes one resolved class and the shapes that produced it.
type ClassInfo struct {
	Name      string   `json:"name"`
	ShapeIDs  []string `json:"shapeIds"`
	FillColor string   `json:"fillColor,omitempty"`
}

// Ambiguity records an empty box that contains more than one text label.
type Ambiguity struct {
	BoxID      string   `json:"boxId"`
	Chosen     string   `json:"chosen"`
	Candidates []string `json:"candidates"`
}

// Index maps box shape IDs to class names.
type Index struct {
	idToClass   map[string]string
	classes     map[string]*ClassInfo
	order       []string // class names in first-discovery order
	unnamed     []string // box IDs with no resolvable name
	ambiguities []Ambiguity
}

// BuildIndex partitions records into text labels and boxes and resolves each
// box to a class name, either from its inline text or from a text label whose
// origin lies inside the box.
//
// Records with a source or target, and records without geometry, take no
// part in the partition. Labels are matched in (y, x, discovery) order so
// the result does not depend on incidental iteration order.
func BuildIndex(records []ShapeRecord) *Index {
	idx := &Index{
		idToClass: make(map[string]string),
		classes:   make(map[string]*ClassInfo),
	}

	labels, boxes := partition(records)

	sort.SliceStable(labels, func(i, j int) bool {
		if labels[i].Y != labels[j].Y {
			return labels[i].Y < labels[j].Y
		}
		if labels[i].X != labels[j].X {
			return labels[i].X < labels[j].X
		}
		return labels[i].order < labels[j].order
	})

	for _, box := range boxes {
		name := box.Value
		if name == "" {
			name = idx.matchLabel(box, labels)
		}
		if name == "" {
			idx.unnamed = append(idx.unnamed, box.ID)
			continue
		}

		className := SanitizeClassName(name)
		idx.add(box, className)
	}

	return idx
}

func partition(records []ShapeRecord) ([]TextLabel, []Box) {
	var labels []TextLabel
	var boxes []Box
	// Positions already taken by a label; a later label at the same origin replaces it
	seen := make(map[[2]float64]int)

	for _, r := range records {
		if r.Geometry == nil || r.Source != "" || r.Target != "" {
			continue
		}

		value := strings.TrimSpace(r.Value)
		switch {
		case IsTextLabel(r.Style) && value != "":
			pos := [2]float64{r.Geometry.X, r.Geometry.Y}
			label := TextLabel{ID: r.ID, X: r.Geometry.X, Y: r.Geometry.Y, Value: value}
			if i, ok := seen[pos]; ok {
				label.order = labels[i].order
				labels[i] = label
				continue
			}
			label.order = len(labels)
			seen[pos] = len(labels)
			labels = append(labels, label)
		case IsBox(r.Style):
			boxes = append(boxes, Box{
				ID:       r.ID,
				Geometry: *r.Geometry,
				Value:    value,
				Style:    r.Style,
			})
		}
	}

	return labels, boxes
}

func (idx *Index) matchLabel(box Box, labels []TextLabel) string {
	var candidates []string
	for _, l := range labels {
		if box.Geometry.Contains(l.X, l.Y) {
			candidates = append(candidates, l.Value)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	if len(candidates) > 1 {
		idx.ambiguities = append(idx.ambiguities, Ambiguity{
			BoxID:      box.ID,
			Chosen:     candidates[0],
			Candidates: candidates,
		})
	}
	return candidates[0]
}

func (idx *Index) add(box Box, className string) {
	idx.idToClass[box.ID] = className

	info, exists := idx.classes[className]
	if !exists {
		info = &ClassInfo{Name: className}
		idx.classes[className] = info
		idx.order = append(idx.order, className)
	}
	info.ShapeIDs = append(info.ShapeIDs, box.ID)
	if info.FillColor == "" {
		info.FillColor = ParseStyle(box.Style).FillColor()
	}
}

// ClassOf returns the class name resolved for a shape ID
func (idx *Index) ClassOf(shapeID string) (string, bool) {
	name, ok := idx.idToClass[shapeID]
	return name, ok
}

// ClassNames returns the distinct class names in first-discovery order
func (idx *Index) ClassNames() []string {
	names := make([]string, len(idx.order))
	copy(names, idx.order)
	return names
}

// Class returns metadata for a resolved class
func (idx *Index) Class(name string) (*ClassInfo, bool) {
	info, ok := idx.classes[name]
	return info, ok
}

// Unnamed returns the IDs of boxes that resolved to no class name
func (idx *Index) Unnamed() []string {
	return idx.unnamed
}

// Ambiguities returns the boxes where more than one label could name the class
func (idx *Index) Ambiguities() []Ambiguity {
	return idx.ambiguities
}

// SanitizeClassName turns free text into a class identifier. Multi-word text
// becomes PascalCase ("order item" -> "OrderItem"); a single word only has its
// first character upper-cased ("iPhone" -> "IPhone").
func SanitizeClassName(name string) string {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return upperFirst(parts[0])
	}

	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(capitalize(p))
	}
	return sb.String()
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// capitalize upper-cases the first character and lower-cases the rest
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
