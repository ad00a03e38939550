// Package classify infers relationship kinds from connector labels and styles.
//
// Labels are authoritative when they name a relationship. Otherwise the
// connector style decides: filled terminators mean ownership, dashed lines
// mean inheritance or dependency depending on the arrow head, and solid
// arrows mean the source is part of the target.
package classify

import (
	"strings"

	"github.com/ritzau/drawio-codegen/pkg/diagram"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

// Rule is one step of the classification chain.
type Rule struct {
	Name  string
	Kind  model.RelationshipKind
	Match func(label, style string) bool
}

// Rules is the classification chain. The first matching rule wins, so the
// order is significant: styles often satisfy more than one rule.
var Rules = []Rule{
	{Name: "label-expands", Kind: model.Expands, Match: labelContains("expands")},
	{Name: "label-depends", Kind: model.Depends, Match: labelContains("depends")},
	{Name: "filled-terminator", Kind: model.Have, Match: filledTerminator},
	{Name: "dashed-open-or-block", Kind: model.Expands, Match: dashedWith("endarrow=open", "endarrow=block")},
	{Name: "dashed-classic", Kind: model.Depends, Match: dashedWith("endarrow=classic")},
	{Name: "solid-classic-or-block", Kind: model.PartOf, Match: solidWith("endarrow=classic", "endarrow=block")},
}

// Result is the full classification of one edge.
type Result struct {
	Kind         model.RelationshipKind `json:"kind"`
	Multiplicity model.Multiplicity     `json:"multiplicity"`
	Marked       bool                   `json:"marked"`
	Rule         string                 `json:"rule,omitempty"` // empty for UNKNOWN
}

// Classify maps an edge to a relationship kind. It never fails: edges that
// match no rule are UNKNOWN.
func Classify(edge diagram.Edge) model.RelationshipKind {
	kind, _ := match(edge)
	return kind
}

// Explain returns the name of the rule that classified the edge, or "" when
// no rule matched
func Explain(edge diagram.Edge) string {
	_, rule := match(edge)
	return rule
}

// Analyze classifies the edge and answers the multiplicity and marker queries
func Analyze(edge diagram.Edge) Result {
	kind, rule := match(edge)
	return Result{
		Kind:         kind,
		Multiplicity: Multiplicity(edge),
		Marked:       HasMarkedTerminator(edge),
		Rule:         rule,
	}
}

// Multiplicity returns "*" when the label contains a literal '*', otherwise "1"
func Multiplicity(edge diagram.Edge) model.Multiplicity {
	if strings.Contains(edge.Label, "*") {
		return model.Many
	}
	return model.One
}

// HasMarkedTerminator reports whether either end of the connector carries an
// oval (filled circle) marker
func HasMarkedTerminator(edge diagram.Edge) bool {
	style := strings.ToLower(edge.Style)
	return strings.Contains(style, "startarrow=oval") || strings.Contains(style, "endarrow=oval")
}

func match(edge diagram.Edge) (model.RelationshipKind, string) {
	label := strings.ToLower(edge.Label)
	style := strings.ToLower(edge.Style)
	for _, r := range Rules {
		if r.Match(label, style) {
			return r.Kind, r.Name
		}
	}
	return model.Unknown, ""
}

// Predicates receive lower-cased input.

func labelContains(word string) func(label, style string) bool {
	return func(label, _ string) bool {
		return strings.Contains(label, word)
	}
}

func filledTerminator(_, style string) bool {
	if !strings.Contains(style, "endfill") && !strings.Contains(style, "startfill=1") {
		return false
	}
	return strings.Contains(style, "endfill=1") || strings.Contains(style, "startarrow=oval")
}

func dashedWith(arrows ...string) func(label, style string) bool {
	return func(_, style string) bool {
		return strings.Contains(style, "dashed=1") && containsAny(style, arrows)
	}
}

func solidWith(arrows ...string) func(label, style string) bool {
	return func(_, style string) bool {
		if strings.Contains(style, "dashed") || !strings.Contains(style, "endarrow") {
			return false
		}
		return containsAny(style, arrows)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
