package diagram

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Style markers used to tell boxes and free text labels apart.
const (
	textMarker = "text;"
	boxMarker  = "whiteSpace=wrap"
)

// StyleEntry is a single `key=value` or bare `flag` item of a style descriptor.
type StyleEntry struct {
	Key   string
	Value string
}

// Style is a parsed style descriptor such as
// "edgeStyle=orthogonalEdgeStyle;dashed=1;endArrow=block;html=1;".
// Entries keep their original order; bare flags have an empty Value.
type Style struct {
	raw     string
	entries []StyleEntry
}

// ParseStyle splits a style descriptor into its entries
func ParseStyle(s string) Style {
	st := Style{raw: s}
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		st.entries = append(st.entries, StyleEntry{Key: key, Value: value})
	}
	return st
}

// Raw returns the descriptor exactly as it appeared in the diagram
func (s Style) Raw() string {
	return s.raw
}

// Entries returns the parsed entries in descriptor order
func (s Style) Entries() []StyleEntry {
	return s.entries
}

// Get returns the value of key. Keys compare case-insensitively.
func (s Style) Get(key string) (string, bool) {
	for _, e := range s.entries {
		if strings.EqualFold(e.Key, key) {
			return e.Value, true
		}
	}
	return "", false
}

// Has reports whether key is present, either as a flag or with a value
func (s Style) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// FillColor returns the fill colour normalised to #rrggbb, or "" when the
// style has no fill, uses "none", or carries a value that is not a hex colour.
func (s Style) FillColor() string {
	v, ok := s.Get("fillColor")
	if !ok {
		return ""
	}
	c, err := colorful.Hex(strings.TrimSpace(v))
	if err != nil {
		return ""
	}
	return c.Hex()
}

// IsTextLabel reports whether the style marks a borderless text element
func IsTextLabel(style string) bool {
	return strings.Contains(style, textMarker)
}

// IsBox reports whether the style marks a bordered box with wrapped text
func IsBox(style string) bool {
	return strings.Contains(style, boxMarker)
}
