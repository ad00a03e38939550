package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritzau/drawio-codegen/pkg/emit"
	"github.com/ritzau/drawio-codegen/pkg/model"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(emit.Options{Package: "pets"})

	res, err := pipeline.NewRunner().Run(context.Background(), filepath.Join("..", "..", "example", "pets.drawio"), pipeline.Options{
		Language: "java",
		DryRun:   true,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	s.SetResult(res)
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlers_NoModel(t *testing.T) {
	h := NewServer(emit.Options{}).Handler()

	for _, path := range []string{"/api/model", "/api/report", "/api/classes/Dog", "/api/classes/Dog/source"} {
		if rec := get(t, h, path); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("GET %s = %d, want 503", path, rec.Code)
		}
	}

	rec := get(t, h, "/api/model/graph")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/model/graph = %d", rec.Code)
	}
}

func TestHandleModel(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/api/model")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/model = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request ID header")
	}

	var m model.ClassModel
	if err := json.Unmarshal(rec.Body.Bytes(), &m); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if m.Name != "pets" || len(m.Classes) != 4 {
		t.Errorf("Unexpected model %s with %d classes", m.Name, len(m.Classes))
	}
}

func TestHandleModelGraph(t *testing.T) {
	h := newTestServer(t).Handler()

	var g model.Graph
	if err := json.Unmarshal(get(t, h, "/api/model/graph").Body.Bytes(), &g); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Errorf("Graph has %d nodes and %d edges, want 4 and 3", len(g.Nodes), len(g.Edges))
	}
}

func TestHandleClass(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := get(t, h, "/api/classes/Animal")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /api/classes/Animal = %d", rec.Code)
	}
	var detail ClassDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if detail.FillColor != "#dae8fc" {
		t.Errorf("FillColor = %q, want #dae8fc", detail.FillColor)
	}
	if len(detail.Subclasses) != 1 || detail.Subclasses[0] != "Dog" {
		t.Errorf("Subclasses = %v, want [Dog]", detail.Subclasses)
	}

	if rec := get(t, h, "/api/classes/Cat"); rec.Code != http.StatusNotFound {
		t.Errorf("GET /api/classes/Cat = %d, want 404", rec.Code)
	}
}

func TestHandleClassSource(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	rec := get(t, h, "/api/classes/PetOwner/source")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET source = %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "private List<Dog> dogs;") {
		t.Errorf("Unexpected Java source:\n%s", rec.Body.String())
	}

	rec = get(t, h, "/api/classes/PetOwner/source?lang=go")
	if !strings.Contains(rec.Body.String(), "package pets") {
		t.Errorf("Unexpected Go source:\n%s", rec.Body.String())
	}

	if s.sources.Len() != 2 {
		t.Errorf("Expected 2 cached sources, got %d", s.sources.Len())
	}

	if rec := get(t, h, "/api/classes/PetOwner/source?lang=cobol"); rec.Code != http.StatusBadRequest {
		t.Errorf("Unknown language = %d, want 400", rec.Code)
	}
}

func TestHandleReport(t *testing.T) {
	h := newTestServer(t).Handler()

	var report ReportResponse
	if err := json.Unmarshal(get(t, h, "/api/report").Body.Bytes(), &report); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if len(report.Report.Unresolved) != 1 {
		t.Errorf("Expected 1 unresolved edge, got %d", len(report.Report.Unresolved))
	}
}

func TestSubscribe_UnknownTopic(t *testing.T) {
	h := NewServer(emit.Options{}).Handler()
	if rec := get(t, h, "/api/subscribe/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("GET unknown topic = %d, want 404", rec.Code)
	}
}

func TestStaticIndex(t *testing.T) {
	h := NewServer(emit.Options{}).Handler()

	rec := get(t, h, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / = %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "<title>drawio-codegen</title>") {
		t.Error("Expected embedded index page")
	}
}
