package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ritzau/drawio-codegen/pkg/drawio"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

var examples = filepath.Join("..", "..", "example")

type recordingPublisher struct {
	mu     sync.Mutex
	states []string
}

func (p *recordingPublisher) PublishGenerationStatus(state, message string, step, total int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states = append(p.states, state)
	return nil
}

func TestRun_Pets(t *testing.T) {
	out := t.TempDir()
	pub := &recordingPublisher{}
	r := NewRunner()
	r.SetPublisher(pub)

	res, err := r.Run(context.Background(), filepath.Join(examples, "pets.drawio"), Options{
		OutDir:   out,
		Language: "java",
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	m := res.Model
	if m.Name != "pets" {
		t.Errorf("Model name = %q, want pets", m.Name)
	}
	for _, name := range []string{"Animal", "Dog", "PetOwner", "Veterinarian"} {
		if _, ok := m.Class(name); !ok {
			t.Errorf("Missing class %s (have %v)", name, m.Order)
		}
	}
	if len(m.Classes) != 4 {
		t.Errorf("Expected 4 classes, got %d", len(m.Classes))
	}

	dog, _ := m.Class("Dog")
	if dog.Parent != "Animal" {
		t.Errorf("Dog.Parent = %q, want Animal", dog.Parent)
	}

	owner, _ := m.Class("PetOwner")
	if len(owner.Fields) != 1 || owner.Fields[0] != (model.FieldDef{Type: "Dog", Name: "dogs", IsCollection: true}) {
		t.Errorf("PetOwner.Fields = %+v", owner.Fields)
	}

	vet, _ := m.Class("Veterinarian")
	if len(vet.Fields) != 1 || vet.Fields[0] != (model.FieldDef{Type: "Dog", Name: "dog"}) {
		t.Errorf("Veterinarian.Fields = %+v", vet.Fields)
	}

	if len(res.Report.Unresolved) != 1 {
		t.Errorf("Expected 1 unresolved edge, got %d", len(res.Report.Unresolved))
	}
	if len(res.Cycles) != 0 {
		t.Errorf("Expected no cycles, got %v", res.Cycles)
	}

	if len(res.Written) != 4 {
		t.Fatalf("Expected 4 written files, got %v", res.Written)
	}
	data, err := os.ReadFile(filepath.Join(out, "PetOwner.java"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "private List<Dog> dogs;") {
		t.Errorf("Unexpected PetOwner.java:\n%s", data)
	}

	if len(pub.states) == 0 || pub.states[len(pub.states)-1] != "ready" {
		t.Errorf("Expected status stream ending in ready, got %v", pub.states)
	}
}

func TestRun_CompressedVehicles(t *testing.T) {
	res, err := NewRunner().Run(context.Background(), filepath.Join(examples, "vehicles.drawio"), Options{
		Language: "go",
		Package:  "vehicles",
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	car, ok := res.Model.Class("Car")
	if !ok {
		t.Fatalf("Missing class Car (have %v)", res.Model.Order)
	}
	if car.Parent != "Vehicle" {
		t.Errorf("Car.Parent = %q, want Vehicle", car.Parent)
	}
	want := []model.FieldDef{
		{Type: "Engine", Name: "engine"},
		{Type: "Wheel", Name: "wheels", IsCollection: true},
	}
	if len(car.Fields) != len(want) {
		t.Fatalf("Car.Fields = %+v, want %+v", car.Fields, want)
	}
	for i := range want {
		if car.Fields[i] != want[i] {
			t.Errorf("Car.Fields[%d] = %+v, want %+v", i, car.Fields[i], want[i])
		}
	}

	driver, _ := res.Model.Class("Driver")
	if len(driver.Fields) != 1 || driver.Fields[0].Name != "car" {
		t.Errorf("Driver.Fields = %+v", driver.Fields)
	}

	if len(res.Written) != 0 {
		t.Errorf("Dry run must not write files, wrote %v", res.Written)
	}
	if len(res.Sources) != 5 || res.Sources[0].Name != "car.go" {
		t.Errorf("Unexpected sources %+v", res.Sources)
	}
}

func TestRun_Errors(t *testing.T) {
	r := NewRunnerWithParser(drawio.NewParserWithLoader(&drawio.MockLoader{
		MockData: map[string][]byte{"bad.drawio": []byte("<mxfile>")},
	}))

	if _, err := r.Run(context.Background(), "bad.drawio", Options{Language: "java", DryRun: true}); err == nil {
		t.Error("Expected parse error")
	}
	if _, err := r.Run(context.Background(), "bad.drawio", Options{Language: "cobol", DryRun: true}); err == nil {
		t.Error("Expected unknown language error")
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewRunner().Run(ctx, filepath.Join(examples, "pets.drawio"), Options{Language: "java", DryRun: true}); err == nil {
		t.Error("Expected error from cancelled context")
	}
}

func TestRunAll_Directory(t *testing.T) {
	out := t.TempDir()

	batch, err := NewRunner().RunAll(context.Background(), examples, Options{OutDir: out, Language: "java"})
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(batch.Results) != 2 || len(batch.Skipped) != 0 {
		t.Fatalf("Expected 2 results and no skips, got %d and %v", len(batch.Results), batch.Skipped)
	}

	for _, p := range []string{
		filepath.Join(out, "pets", "Dog.java"),
		filepath.Join(out, "vehicles", "Car.java"),
	} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Expected %s to be written: %v", p, err)
		}
	}
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRunAll_SkipsForeignXML(t *testing.T) {
	dir := t.TempDir()
	pom := filepath.Join(dir, "a_pom.xml")
	if err := os.WriteFile(pom, []byte("<project><modelVersion>4.0.0</modelVersion></project>"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b_broken.xml"), []byte("<mxfile><diagram"), 0o644); err != nil {
		t.Fatal(err)
	}
	copyFile(t, filepath.Join(examples, "pets.drawio"), filepath.Join(dir, "pets.drawio"))

	batch, err := NewRunner().RunAll(context.Background(), dir, Options{Language: "java", DryRun: true})
	if err != nil {
		t.Fatalf("RunAll() error = %v", err)
	}
	if len(batch.Results) != 1 || batch.Results[0].Model.Name != "pets" {
		t.Fatalf("Expected only the pets model, got %d results", len(batch.Results))
	}
	if len(batch.Skipped) != 2 || batch.Skipped[0].File != pom {
		t.Errorf("Expected both foreign files to be skipped, got %+v", batch.Skipped)
	}
}

func TestRunAll_NoDiagramParses(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"pom.xml", "web.xml"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("<project/>"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	batch, err := NewRunner().RunAll(context.Background(), dir, Options{Language: "java", DryRun: true})
	if !errors.Is(err, drawio.ErrNoGraphModel) {
		t.Fatalf("Expected ErrNoGraphModel, got %v", err)
	}
	if len(batch.Skipped) != 2 {
		t.Errorf("Expected 2 skipped files, got %+v", batch.Skipped)
	}
}

func TestRunAll_SingleFileErrorIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pom.xml")
	if err := os.WriteFile(path, []byte("<project/>"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := NewRunner().RunAll(context.Background(), path, Options{Language: "java", DryRun: true})
	var perr *ParseError
	if !errors.As(err, &perr) || perr.File != path {
		t.Fatalf("Expected ParseError for %s, got %v", path, err)
	}
}

func TestModelName(t *testing.T) {
	tests := map[string]string{
		"model/shop.drawio":     "shop",
		"shop.drawio.xml":       "shop",
		filepath.Join("a", "b"): "b",
	}
	for in, want := range tests {
		if got := ModelName(in); got != want {
			t.Errorf("ModelName(%q) = %q, want %q", in, got, want)
		}
	}
}
