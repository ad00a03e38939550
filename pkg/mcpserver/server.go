// Package mcpserver exposes generation and edge classification as MCP tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/ritzau/drawio-codegen/pkg/builder"
	"github.com/ritzau/drawio-codegen/pkg/classify"
	"github.com/ritzau/drawio-codegen/pkg/diagram"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
)

const rulesURI = "drawio-codegen://classifier/rules"

// GenerateArgs are the arguments of generate_classes
type GenerateArgs struct {
	Path     string `json:"path" jsonschema:"Path to a .drawio or .xml diagram file"`
	Language string `json:"lang,omitempty" jsonschema:"Target language: java or go (defaults to the server setting)"`
	OutDir   string `json:"out_dir,omitempty" jsonschema:"Directory for generated sources (defaults to the server setting)"`
	DryRun   bool   `json:"dry_run,omitempty" jsonschema:"Build the model and report without writing files"`
}

// ClassifyArgs are the arguments of classify_edge
type ClassifyArgs struct {
	Label string `json:"label,omitempty" jsonschema:"Connector label text, e.g. 0..* or depends"`
	Style string `json:"style" jsonschema:"draw.io style string of the connector"`
}

// GenerateSummary is the JSON answer of generate_classes
type GenerateSummary struct {
	Model         string   `json:"model"`
	Classes       []string `json:"classes"`
	Relationships []string `json:"relationships"`
	Warnings      []string `json:"warnings,omitempty"`
	Written       []string `json:"written,omitempty"`
}

// Server wraps the MCP server and the pipeline it drives
type Server struct {
	mcpServer *mcp.Server
	runner    *pipeline.Runner
	defaults  pipeline.Options
}

// New creates an MCP server. defaults fill in arguments a client omits.
func New(runner *pipeline.Runner, defaults pipeline.Options, version string) *Server {
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{Name: "drawio-codegen", Version: version}, nil),
		runner:    runner,
		defaults:  defaults,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx ends
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server listening on stdio")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "generate_classes",
		Description: "Converts a draw.io class diagram into a class model and generates one source file per class",
	}, s.generateClasses)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "classify_edge",
		Description: "Explains how a connector with the given label and style is classified (EXPANDS, DEPENDS, HAVE, PART_OF or UNKNOWN)",
	}, s.classifyEdge)
}

func (s *Server) generateClasses(ctx context.Context, req *mcp.CallToolRequest, args GenerateArgs) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(args.Path) == "" {
		return errorResult("path is required"), nil, nil
	}

	opts := s.defaults
	opts.Reason = "mcp request"
	opts.DryRun = opts.DryRun || args.DryRun
	if args.Language != "" {
		opts.Language = args.Language
	}
	if args.OutDir != "" {
		opts.OutDir = args.OutDir
	}

	res, err := s.runner.Run(ctx, args.Path, opts)
	if err != nil {
		return errorResult(fmt.Sprintf("Generation failed: %v", err)), nil, nil
	}

	summary := GenerateSummary{
		Model:         res.Model.Name,
		Classes:       res.Model.Order,
		Relationships: builder.Lines(res.Model),
		Written:       res.Written,
	}
	for _, u := range res.Report.Unresolved {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("unresolved connector %s -> %s", u.Edge.SourceID, u.Edge.TargetID))
	}
	for _, d := range res.Report.DroppedFields {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("dropped duplicate field %s.%s", d.Class, d.Field.Name))
	}
	for _, c := range res.Cycles {
		summary.Warnings = append(summary.Warnings, "inheritance cycle "+c.String())
	}

	return jsonResult(summary)
}

func (s *Server) classifyEdge(ctx context.Context, req *mcp.CallToolRequest, args ClassifyArgs) (*mcp.CallToolResult, any, error) {
	edge := diagram.Edge{Label: strings.TrimSpace(args.Label), Style: args.Style}
	res := classify.Analyze(edge)

	answer := struct {
		classify.Result
		Line string `json:"line"`
	}{
		Result: res,
		Line:   builder.FormatRelationship(relationship(res)),
	}
	return jsonResult(answer)
}

// relationship places a classification between placeholder endpoints, since
// a bare connector has no resolved classes
func relationship(res classify.Result) model.Relationship {
	return model.Relationship{
		Source:       "Source",
		Target:       "Target",
		Kind:         res.Kind,
		Multiplicity: res.Multiplicity,
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         rulesURI,
		Name:        "Classification Rules",
		Description: "The ordered connector classification chain; the first matching rule wins",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: rulesURI, MIMEType: "text/markdown", Text: RulesMarkdown()},
			},
		}, nil
	})

	schemas := buildSchemaMap()
	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "drawio-codegen://schemas/{tool_name}",
		Name:        "Tool Schema",
		Description: "JSON schema for the named tool's arguments",
		MIMEType:    "application/schema+json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		uri := req.Params.URI
		schema, ok := schemas[strings.TrimPrefix(uri, "drawio-codegen://schemas/")]
		if !ok {
			return nil, fmt.Errorf("unknown tool schema: %q", uri)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/schema+json", Text: schema},
			},
		}, nil
	})
}

// RulesMarkdown lists the classification chain in evaluation order
func RulesMarkdown() string {
	var b strings.Builder
	b.WriteString("# Connector classification\n\n")
	b.WriteString("Label and style are compared lower-cased. The first matching rule wins; no match is UNKNOWN.\n\n")
	for i, r := range classify.Rules {
		fmt.Fprintf(&b, "%d. `%s` -> %s\n", i+1, r.Name, r.Kind)
	}
	b.WriteString("\nA label containing `*` makes HAVE and PART_OF fields collections.\n")
	return b.String()
}

func buildSchemaMap() map[string]string {
	m := make(map[string]string)
	addSchema[GenerateArgs](m, "generate_classes")
	addSchema[ClassifyArgs](m, "classify_edge")
	return m
}

func addSchema[T any](m map[string]string, name string) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		logging.Warn("failed to infer tool schema", "tool", name, "error", err)
		return
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return
	}
	m[name] = string(data)
}

func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return textResult(string(data)), nil, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
