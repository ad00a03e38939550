package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/ritzau/drawio-codegen/pkg/builder"
	"github.com/ritzau/drawio-codegen/pkg/model"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
)

// PrintReport prints a colored summary of one generation run
func PrintReport(w io.Writer, res *pipeline.Result) {
	bold := color.New(color.Bold)
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	m := res.Model
	report := res.Report

	// Header
	bold.Fprintf(w, "Class model: %s\n", m.Name)
	bold.Fprintln(w, strings.Repeat("=", len("Class model: ")+len(m.Name)))
	fmt.Fprintf(w, "Diagram: %s\n", res.File)
	fmt.Fprintf(w, "Found %d classes: %s\n", len(m.Order), strings.Join(m.Order, ", "))
	fmt.Fprintln(w)

	// Relationships, in diagram order
	if len(m.Relationships) > 0 {
		bold.Fprintf(w, "Relationships (%d):\n", len(m.Relationships))
		for _, rel := range m.Relationships {
			c := cyan
			if rel.Kind == model.Unknown {
				c = yellow
			}
			c.Fprintf(w, "  %s\n", builder.FormatRelationship(rel))
		}
		fmt.Fprintln(w)
	}

	// Classes
	for _, c := range m.Sorted() {
		if c.Parent != "" {
			bold.Fprintf(w, "%s", c.Name)
			fmt.Fprintf(w, " extends %s\n", c.Parent)
		} else {
			bold.Fprintln(w, c.Name)
		}
		for _, f := range c.Fields {
			t := f.Type
			if f.IsCollection {
				t += "[]"
			}
			fmt.Fprintf(w, "  %s: %s\n", f.Name, t)
		}
	}
	fmt.Fprintln(w)

	// Problems
	warnings := 0
	for _, u := range report.Unresolved {
		yellow.Fprintf(w, "Unresolved connector %s -> %s%s\n", u.Edge.SourceID, u.Edge.TargetID, missingSide(u))
		warnings++
	}
	for _, d := range report.DroppedFields {
		yellow.Fprintf(w, "Dropped duplicate field %s.%s (%s)\n", d.Class, d.Field.Name, d.Field.Type)
		warnings++
	}
	for _, p := range report.ParentOverwrites {
		yellow.Fprintf(w, "%s: parent %s replaced by %s\n", p.Class, p.Previous, p.Parent)
		warnings++
	}
	for _, id := range report.UnnamedBoxes {
		yellow.Fprintf(w, "Box %s has no class name\n", id)
		warnings++
	}
	for _, a := range report.Ambiguities {
		yellow.Fprintf(w, "Box %s matches labels %s, chose %s\n", a.BoxID, strings.Join(a.Candidates, ", "), a.Chosen)
		warnings++
	}
	for _, c := range res.Cycles {
		red.Fprintf(w, "Inheritance cycle: %s\n", c.String())
		warnings++
	}

	// Summary
	summary := green
	if warnings > 0 {
		summary = yellow
	}
	summary.Fprintf(w, "Summary: %d classes, %d fields, %d warning(s)\n", len(m.Classes), m.FieldCount(), warnings)

	if len(res.Written) > 0 {
		green.Fprintf(w, "✓ Wrote %d file(s)\n", len(res.Written))
	} else if len(res.Sources) > 0 {
		cyan.Fprintf(w, "Dry run: %d file(s) not written\n", len(res.Sources))
	}
}

func missingSide(u builder.UnresolvedEdge) string {
	switch {
	case u.MissingSource && u.MissingTarget:
		return " (neither end is a class)"
	case u.MissingSource:
		return " (source is not a class)"
	case u.MissingTarget:
		return " (target is not a class)"
	}
	return ""
}
