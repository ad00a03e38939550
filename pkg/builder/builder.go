// Package builder assembles class models from resolved shapes and
// classified connectors.
package builder

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ritzau/drawio-codegen/pkg/classify"
	"github.com/ritzau/drawio-codegen/pkg/diagram"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

// UnresolvedEdge is a connector whose source or target is not a known class
type UnresolvedEdge struct {
	Edge          diagram.Edge `json:"edge"`
	MissingSource bool         `json:"missingSource"`
	MissingTarget bool         `json:"missingTarget"`
}

// DroppedField is a field that was not added because its name was taken
type DroppedField struct {
	Class string         `json:"class"`
	Field model.FieldDef `json:"field"`
}

// ParentOverwrite records a class whose parent was replaced by a later edge
type ParentOverwrite struct {
	Class    string `json:"class"`
	Previous string `json:"previous"`
	Parent   string `json:"parent"`
}

// Report collects the diagnostics of one build. None of these are errors.
// Classified relationships live on the model itself.
type Report struct {
	Unresolved       []UnresolvedEdge     `json:"unresolved"`
	Unknown          []model.Relationship `json:"unknown"`
	DroppedFields    []DroppedField       `json:"droppedFields"`
	ParentOverwrites []ParentOverwrite    `json:"parentOverwrites"`
	UnnamedBoxes     []string             `json:"unnamedBoxes"`
	Ambiguities      []diagram.Ambiguity  `json:"ambiguities"`
}

// Lines renders the relationship log, one line per classified edge
func Lines(m *model.ClassModel) []string {
	lines := make([]string, 0, len(m.Relationships))
	for _, rel := range m.Relationships {
		lines = append(lines, FormatRelationship(rel))
	}
	return lines
}

// FormatRelationship renders a relationship as "A --[KIND]--> B (multiplicity: m)"
func FormatRelationship(rel model.Relationship) string {
	return fmt.Sprintf("%s --[%s]--> %s (multiplicity: %s)", rel.Source, rel.Kind, rel.Target, rel.Multiplicity)
}

// Build seeds one empty class per indexed class name and applies every edge
// in order. Edges that touch an unresolved shape are skipped and reported.
func Build(name string, idx *diagram.Index, edges []diagram.Edge) (*model.ClassModel, *Report) {
	m := model.NewClassModel(name)
	report := &Report{
		Unresolved:       make([]UnresolvedEdge, 0),
		Unknown:          make([]model.Relationship, 0),
		DroppedFields:    make([]DroppedField, 0),
		ParentOverwrites: make([]ParentOverwrite, 0),
		UnnamedBoxes:     idx.Unnamed(),
		Ambiguities:      idx.Ambiguities(),
	}

	for _, className := range idx.ClassNames() {
		m.Ensure(className)
	}

	logging.Info("found classes", "count", len(m.Classes), "classes", strings.Join(idx.ClassNames(), ", "))
	logging.Debug("processing relationships", "count", len(edges))

	b := &builder{model: m, report: report}
	for _, edge := range edges {
		b.apply(idx, edge)
	}

	return m, report
}

type builder struct {
	model  *model.ClassModel
	report *Report
}

func (b *builder) apply(idx *diagram.Index, edge diagram.Edge) {
	source, okSource := idx.ClassOf(edge.SourceID)
	target, okTarget := idx.ClassOf(edge.TargetID)
	if !okSource || !okTarget {
		b.report.Unresolved = append(b.report.Unresolved, UnresolvedEdge{
			Edge:          edge,
			MissingSource: !okSource,
			MissingTarget: !okTarget,
		})
		logging.Debug("skipping edge with unresolved endpoint",
			"source", edge.SourceID, "target", edge.TargetID, "label", edge.Label)
		return
	}

	res := classify.Analyze(edge)
	rel := model.Relationship{
		Source:       source,
		Target:       target,
		Kind:         res.Kind,
		Multiplicity: res.Multiplicity,
		Marked:       res.Marked,
		Label:        edge.Label,
		Rule:         res.Rule,
	}
	b.model.Relationships = append(b.model.Relationships, rel)

	logging.Info(FormatRelationship(rel))

	switch rel.Kind {
	case model.Expands:
		if prev := b.model.Classes[source].SetParent(target); prev != "" && prev != target {
			b.report.ParentOverwrites = append(b.report.ParentOverwrites, ParentOverwrite{
				Class:    source,
				Previous: prev,
				Parent:   target,
			})
			logging.Warn("parent replaced by later edge", "class", source, "previous", prev, "parent", target)
		}

	case model.Depends:
		b.addField(source, model.FieldDef{Type: target, Name: FieldName(target, false)})

	case model.Have:
		many := rel.Multiplicity == model.Many
		b.addField(source, model.FieldDef{Type: target, Name: FieldName(target, many), IsCollection: many})

	case model.PartOf:
		many := rel.Multiplicity == model.Many
		b.addField(target, model.FieldDef{Type: source, Name: FieldName(source, many), IsCollection: many})

	default:
		b.report.Unknown = append(b.report.Unknown, rel)
		logging.Warn("unclassified relationship", "source", source, "target", target,
			"label", edge.Label, "style", edge.Style)
	}
}

func (b *builder) addField(className string, f model.FieldDef) {
	if !b.model.Classes[className].AddField(f) {
		b.report.DroppedFields = append(b.report.DroppedFields, DroppedField{Class: className, Field: f})
		logging.Debug("field name already taken", "class", className, "field", f.Name)
	}
}

// FieldName derives a field name from a class name by lower-casing its first
// character, adding a plural "s" for collections.
func FieldName(className string, plural bool) string {
	name := lowerFirst(className)
	if plural {
		name += "s"
	}
	return name
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError && size <= 1 {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}
