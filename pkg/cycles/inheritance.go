// Package cycles detects inheritance loops in a class model. A loop makes
// the generated sources uncompilable, but the model itself stays valid, so
// loops are reported and never fail a run.
package cycles

import (
	"sort"
	"strings"

	"github.com/ritzau/drawio-codegen/pkg/graph"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

// InheritanceCycle is a group of classes that (transitively) extend each other
type InheritanceCycle struct {
	Classes []string `json:"classes"` // Sorted class names
}

// String renders the cycle as "A -> B -> A"
func (c InheritanceCycle) String() string {
	if len(c.Classes) == 0 {
		return ""
	}
	return strings.Join(append(append([]string{}, c.Classes...), c.Classes[0]), " -> ")
}

// FindInheritanceCycles returns every inheritance loop in the model,
// including classes that extend themselves. Each cycle is logged as a warning.
func FindInheritanceCycles(m *model.ClassModel) []InheritanceCycle {
	cg := graph.BuildClassGraph(m)

	cycles := make([]InheritanceCycle, 0)

	// Self edges never reach the gonum graph
	for _, c := range m.Sorted() {
		if c.Parent == c.Name {
			cycles = append(cycles, InheritanceCycle{Classes: []string{c.Name}})
		}
	}

	for _, scc := range NewTarjanSCC(cg.Graph()).FindSCCs() {
		names := make([]string, 0, len(scc))
		for _, id := range scc {
			if name, ok := cg.NameOf(id); ok {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		cycles = append(cycles, InheritanceCycle{Classes: names})
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Classes[0] < cycles[j].Classes[0]
	})

	for _, c := range cycles {
		logging.Warn("inheritance cycle", "classes", c.String())
	}

	return cycles
}
