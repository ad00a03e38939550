// Package pipeline runs a diagram through every stage: parse, index,
// extract, build, check and emit.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ritzau/drawio-codegen/pkg/builder"
	"github.com/ritzau/drawio-codegen/pkg/cycles"
	"github.com/ritzau/drawio-codegen/pkg/diagram"
	"github.com/ritzau/drawio-codegen/pkg/drawio"
	"github.com/ritzau/drawio-codegen/pkg/emit"
	"github.com/ritzau/drawio-codegen/pkg/finder"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

// Steps in a single run, used for status progress
const totalSteps = 5

// StatusPublisher receives progress events while a run is in flight
type StatusPublisher interface {
	PublishGenerationStatus(state, message string, step, total int) error
}

// Options configures a run
type Options struct {
	OutDir   string // Where generated sources are written
	Language string // Emitter name, see emit.Languages
	Package  string // Package name for emitters that need one
	DryRun   bool   // Build and emit in memory, write nothing
	Reason   string // e.g. "initial generation", "diagram changed"
}

// Result is everything one diagram produced
type Result struct {
	File    string                    `json:"file"`
	Model   *model.ClassModel         `json:"model"`
	Report  *builder.Report           `json:"report"`
	Index   *diagram.Index            `json:"-"`
	Cycles  []cycles.InheritanceCycle `json:"cycles"`
	Sources []emit.File               `json:"sources"`
	Written []string                  `json:"written,omitempty"`
}

// Batch is the outcome of RunAll
type Batch struct {
	Results []*Result
	Skipped []SkippedFile
}

// SkippedFile is a file found next to the diagrams that could not be parsed
// as one, e.g. a pom.xml in the same tree.
type SkippedFile struct {
	File   string `json:"file"`
	Reason string `json:"reason"`
}

// ParseError marks a failure to read a file as a diagram at all
type ParseError struct {
	File string
	Err  error
}

func (e *ParseError) Error() string { return e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// Runner orchestrates generation runs
type Runner struct {
	parser    *drawio.Parser
	publisher StatusPublisher
	mu        sync.Mutex // Prevent concurrent runs writing the same files
}

// NewRunner creates a runner that reads diagrams from disk
func NewRunner() *Runner {
	return &Runner{parser: drawio.NewParser()}
}

// NewRunnerWithParser creates a runner with a custom parser
func NewRunnerWithParser(p *drawio.Parser) *Runner {
	return &Runner{parser: p}
}

// SetPublisher attaches a status publisher; nil detaches it
func (r *Runner) SetPublisher(p StatusPublisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publisher = p
}

// Run processes a single diagram file
func (r *Runner) Run(ctx context.Context, path string, opts Options) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.run(ctx, path, opts)
}

// RunAll processes a diagram file, or every diagram below a directory. When
// more than one diagram is found each gets its own output subdirectory, so
// equally named classes from different diagrams never overwrite each other.
// In a batch, files that do not parse as diagrams are skipped; the batch
// fails only when none of them does.
func (r *Runner) RunAll(ctx context.Context, input string, opts Options) (*Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	files, err := finder.FindDiagrams(input)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no diagrams found in %s", input)
	}

	batch := &Batch{
		Results: make([]*Result, 0, len(files)),
		Skipped: make([]SkippedFile, 0),
	}
	var firstSkip error
	for _, file := range files {
		fileOpts := opts
		if len(files) > 1 {
			fileOpts.OutDir = filepath.Join(opts.OutDir, ModelName(file))
		}

		res, err := r.run(ctx, file, fileOpts)
		var perr *ParseError
		if len(files) > 1 && errors.As(err, &perr) {
			logging.WarnContext(ctx, "Skipping file that is not a diagram", "file", file, "error", perr.Err)
			batch.Skipped = append(batch.Skipped, SkippedFile{File: file, Reason: perr.Err.Error()})
			if firstSkip == nil {
				firstSkip = err
			}
			continue
		}
		if err != nil {
			return batch, err
		}
		batch.Results = append(batch.Results, res)
	}

	if len(batch.Results) == 0 {
		return batch, fmt.Errorf("none of the %d files in %s is a diagram: %w", len(files), input, firstSkip)
	}
	return batch, nil
}

func (r *Runner) run(ctx context.Context, path string, opts Options) (*Result, error) {
	reason := opts.Reason
	if reason == "" {
		reason = "generation"
	}
	logging.InfoContext(ctx, "Starting generation", "file", path, "reason", reason)

	emitter, err := emit.Lookup(opts.Language, emit.Options{Package: opts.Package})
	if err != nil {
		return nil, err
	}

	// Step 1: parse
	r.status("parsing", fmt.Sprintf("Parsing %s...", path), 1)
	records, err := r.parser.ParseFile(path)
	if err != nil {
		r.status("error", fmt.Sprintf("Error parsing diagram: %v", err), 1)
		return nil, &ParseError{File: path, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 2: shapes and connectors
	r.status("indexing", "Indexing shapes and connectors...", 2)
	idx := diagram.BuildIndex(records)
	edges := diagram.ExtractEdges(records)

	// Step 3: model
	r.status("building", "Building class model...", 3)
	m, report := builder.Build(ModelName(path), idx, edges)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Step 4: checks
	r.status("checking", "Checking inheritance...", 4)
	loops := cycles.FindInheritanceCycles(m)

	// Step 5: emit
	r.status("emitting", fmt.Sprintf("Emitting %s sources...", emitter.Language()), 5)
	sources, err := emit.EmitAll(m, emitter)
	if err != nil {
		r.status("error", fmt.Sprintf("Error emitting sources: %v", err), 5)
		return nil, err
	}

	res := &Result{
		File:    path,
		Model:   m,
		Report:  report,
		Index:   idx,
		Cycles:  loops,
		Sources: sources,
	}

	if opts.DryRun {
		logging.InfoContext(ctx, "Dry run, nothing written", "classes", len(sources))
	} else {
		res.Written, err = emit.WriteFiles(opts.OutDir, sources)
		if err != nil {
			r.status("error", fmt.Sprintf("Error writing sources: %v", err), 5)
			return nil, err
		}
	}

	r.status("ready", fmt.Sprintf("Generated %d classes", len(sources)), totalSteps)
	logging.InfoContext(ctx, "Generation complete", "file", path, "classes", len(m.Classes), "fields", m.FieldCount())
	return res, nil
}

func (r *Runner) status(state, message string, step int) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishGenerationStatus(state, message, step, totalSteps); err != nil {
		logging.Warn("failed to publish status", "state", state, "error", err)
	}
}

// ModelName derives a model name from a diagram path: "model/shop.drawio" is "shop"
func ModelName(path string) string {
	base := filepath.Base(path)
	for {
		ext := filepath.Ext(base)
		if ext == "" || ext == base {
			return base
		}
		base = strings.TrimSuffix(base, ext)
	}
}
