package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
)

func newServer() *Server {
	return New(pipeline.NewRunner(), pipeline.Options{Language: "java", DryRun: true}, "test")
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) != 1 {
		t.Fatalf("Expected 1 content item, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("Expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestGenerateClasses(t *testing.T) {
	s := newServer()

	res, _, err := s.generateClasses(context.Background(), nil, GenerateArgs{
		Path: filepath.Join("..", "..", "example", "vehicles.drawio"),
	})
	if err != nil {
		t.Fatalf("generateClasses() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("Unexpected tool error: %s", resultText(t, res))
	}

	var summary GenerateSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &summary); err != nil {
		t.Fatalf("Bad JSON: %v", err)
	}
	if summary.Model != "vehicles" || len(summary.Classes) != 5 {
		t.Errorf("Unexpected summary %+v", summary)
	}
	if len(summary.Written) != 0 {
		t.Errorf("Dry-run default must not write files, wrote %v", summary.Written)
	}

	found := false
	for _, line := range summary.Relationships {
		if line == "Wheel --[PART_OF]--> Car (multiplicity: *)" {
			found = true
		}
	}
	if !found {
		t.Errorf("Missing Wheel relationship in %v", summary.Relationships)
	}
}

func TestGenerateClasses_Errors(t *testing.T) {
	s := newServer()

	tests := []GenerateArgs{
		{},
		{Path: filepath.Join(t.TempDir(), "missing.drawio")},
		{Path: filepath.Join("..", "..", "example", "pets.drawio"), Language: "cobol"},
	}

	for _, args := range tests {
		res, _, err := s.generateClasses(context.Background(), nil, args)
		if err != nil {
			t.Fatalf("generateClasses(%+v) protocol error = %v", args, err)
		}
		if !res.IsError {
			t.Errorf("generateClasses(%+v) should report a tool error", args)
		}
	}
}

func TestClassifyEdge(t *testing.T) {
	tests := []struct {
		args     ClassifyArgs
		wantKind string
		wantRule string
		wantLine string
	}{
		{
			args:     ClassifyArgs{Label: "0..*", Style: "endArrow=diamondThin;endFill=1;"},
			wantKind: "HAVE",
			wantRule: "filled-terminator",
			wantLine: "Source --[HAVE]--> Target (multiplicity: *)",
		},
		{
			args:     ClassifyArgs{Style: "endArrow=none;"},
			wantKind: "UNKNOWN",
			wantLine: "Source --[UNKNOWN]--> Target (multiplicity: 1)",
		},
	}

	s := newServer()
	for _, tt := range tests {
		res, _, err := s.classifyEdge(context.Background(), nil, tt.args)
		if err != nil {
			t.Fatalf("classifyEdge() error = %v", err)
		}

		var got struct {
			Kind string `json:"kind"`
			Rule string `json:"rule"`
			Line string `json:"line"`
		}
		if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
			t.Fatalf("Bad JSON: %v", err)
		}
		if got.Kind != tt.wantKind || got.Rule != tt.wantRule || got.Line != tt.wantLine {
			t.Errorf("classifyEdge(%+v) = %+v", tt.args, got)
		}
	}
}

func TestRulesMarkdown(t *testing.T) {
	md := RulesMarkdown()
	if !strings.Contains(md, "1. `label-expands` -> EXPANDS") {
		t.Errorf("Rules should start with the label rule:\n%s", md)
	}
	if !strings.Contains(md, "6. `solid-classic-or-block` -> PART_OF") {
		t.Errorf("Rules should end with the solid arrow rule:\n%s", md)
	}
}

func TestSchemas(t *testing.T) {
	schemas := buildSchemaMap()
	for _, name := range []string{"generate_classes", "classify_edge"} {
		if !strings.Contains(schemas[name], `"properties"`) {
			t.Errorf("Schema for %s missing properties: %s", name, schemas[name])
		}
	}
}

func TestInMemorySession(t *testing.T) {
	ctx := context.Background()
	s := newServer()

	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	serverSession, err := s.mcpServer.Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server Connect() error = %v", err)
	}
	defer serverSession.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client Connect() error = %v", err)
	}
	defer session.Close()

	res, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "classify_edge",
		Arguments: map[string]any{"label": "expands", "style": ""},
	})
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if !strings.Contains(resultText(t, res), `"kind": "EXPANDS"`) {
		t.Errorf("Unexpected result %s", resultText(t, res))
	}
}
