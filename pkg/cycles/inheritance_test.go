package cycles

import (
	"reflect"
	"testing"

	"github.com/ritzau/drawio-codegen/pkg/model"
)

func modelWithParents(parents map[string]string) *model.ClassModel {
	m := model.NewClassModel("test")
	for child, parent := range parents {
		m.Ensure(parent)
		m.Ensure(child).SetParent(parent)
	}
	return m
}

func TestFindInheritanceCycles(t *testing.T) {
	tests := []struct {
		name    string
		parents map[string]string
		want    [][]string
	}{
		{
			name:    "No Cycles",
			parents: map[string]string{"Dog": "Animal", "Puppy": "Dog"},
			want:    nil,
		},
		{
			name:    "Two Class Cycle",
			parents: map[string]string{"A": "B", "B": "A"},
			want:    [][]string{{"A", "B"}},
		},
		{
			name:    "Three Class Cycle",
			parents: map[string]string{"A": "B", "B": "C", "C": "A"},
			want:    [][]string{{"A", "B", "C"}},
		},
		{
			name:    "Self Extension",
			parents: map[string]string{"Node": "Node"},
			want:    [][]string{{"Node"}},
		},
		{
			name: "Cycle With Acyclic Parts",
			parents: map[string]string{
				"Dog": "Animal",
				"X":   "Y",
				"Y":   "X",
			},
			want: [][]string{{"X", "Y"}},
		},
		{
			name: "Multiple Cycles",
			parents: map[string]string{
				"A": "B", "B": "A",
				"C": "D", "D": "E", "E": "C",
			},
			want: [][]string{{"A", "B"}, {"C", "D", "E"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cycles := FindInheritanceCycles(modelWithParents(tt.parents))

			var got [][]string
			for _, c := range cycles {
				got = append(got, c.Classes)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FindInheritanceCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInheritanceCycle_String(t *testing.T) {
	c := InheritanceCycle{Classes: []string{"A", "B"}}
	if got := c.String(); got != "A -> B -> A" {
		t.Errorf("String() = %q", got)
	}
}
