// Package web serves the current class model, its diagnostics and the
// generated sources over HTTP, with live updates over SSE.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/ritzau/drawio-codegen/pkg/builder"
	"github.com/ritzau/drawio-codegen/pkg/cycles"
	"github.com/ritzau/drawio-codegen/pkg/emit"
	"github.com/ritzau/drawio-codegen/pkg/graph"
	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
	"github.com/ritzau/drawio-codegen/pkg/pipeline"
	"github.com/ritzau/drawio-codegen/pkg/pubsub"
)

//go:embed static/*
var staticFiles embed.FS

// sourceCacheSize bounds the rendered sources kept in memory
const sourceCacheSize = 256

// ClassDetail is the response of /api/classes/{name}
type ClassDetail struct {
	Class      *model.ClassDef `json:"class"`
	Ancestors  []string        `json:"ancestors"`
	Subclasses []string        `json:"subclasses"`
	FillColor  string          `json:"fillColor,omitempty"`
	ShapeIDs   []string        `json:"shapeIds,omitempty"`
}

// ReportResponse is the response of /api/report
type ReportResponse struct {
	File   string                    `json:"file"`
	Report *builder.Report           `json:"report"`
	Cycles []cycles.InheritanceCycle `json:"cycles"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	publisher *pubsub.SSEPublisher
	emitOpts  emit.Options

	mu      sync.RWMutex
	result  *pipeline.Result
	classes *graph.ClassGraph
	version int

	sources *lru.Cache[string, []byte] // "version/lang/class" -> rendered source
}

// NewServer creates a new web server. opts configure on-demand emitters.
func NewServer(opts emit.Options) *Server {
	publisher := pubsub.NewSSEPublisher()
	pubsub.DefaultTopics(publisher)

	cache, err := lru.New[string, []byte](sourceCacheSize)
	if err != nil {
		// Only fails for a non-positive size
		panic(err)
	}

	s := &Server{
		router:    mux.NewRouter(),
		publisher: publisher,
		emitOpts:  opts,
		sources:   cache,
	}
	s.setupRoutes()
	return s
}

// SetResult stores a finished run and announces it to subscribers
func (s *Server) SetResult(res *pipeline.Result) {
	s.mu.Lock()
	s.result = res
	s.classes = graph.BuildClassGraph(res.Model)
	s.version++
	s.mu.Unlock()

	// Keys carry the version, so stale entries would never be hit again
	s.sources.Purge()

	summary := pubsub.ModelSummary{
		Model:         res.Model.Name,
		Classes:       len(res.Model.Classes),
		Fields:        res.Model.FieldCount(),
		Relationships: len(res.Model.Relationships),
		Unresolved:    len(res.Report.Unresolved),
	}
	if err := s.publisher.Publish(pubsub.TopicClassModel, "updated", summary); err != nil {
		logging.Warn("failed to publish model update", "error", err)
	}
}

// PublishGenerationStatus publishes a generation status event
func (s *Server) PublishGenerationStatus(state, message string, step, total int) error {
	status := pubsub.GenerationStatus{
		State:   state,
		Message: message,
		Step:    step,
		Total:   total,
	}
	return s.publisher.Publish(pubsub.TopicGenerationStatus, state, status)
}

// Handler returns the HTTP handler with request logging applied
func (s *Server) Handler() http.Handler {
	return logging.RequestIDMiddleware(s.router)
}

func (s *Server) setupRoutes() {
	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// API routes - more specific routes must come first
	s.router.HandleFunc("/api/model", s.handleModel).Methods("GET")
	s.router.HandleFunc("/api/model/graph", s.handleModelGraph).Methods("GET")
	s.router.HandleFunc("/api/classes/{name}/source", s.handleClassSource).Methods("GET")
	s.router.HandleFunc("/api/classes/{name}", s.handleClass).Methods("GET")
	s.router.HandleFunc("/api/report", s.handleReport).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

func (s *Server) current() (*pipeline.Result, *graph.ClassGraph, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result, s.classes, s.version
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]
	if topic != pubsub.TopicGenerationStatus && topic != pubsub.TopicClassModel {
		http.Error(w, fmt.Sprintf("Unknown topic %q", topic), http.StatusNotFound)
		return
	}
	pubsub.Stream(w, r, s.publisher, topic)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	res, _, _ := s.current()
	if res == nil {
		http.Error(w, "Model not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, res.Model)
}

func (s *Server) handleModelGraph(w http.ResponseWriter, r *http.Request) {
	res, _, _ := s.current()
	if res == nil {
		writeJSON(w, r, model.NewGraph())
		return
	}
	writeJSON(w, r, model.BuildGraph(res.Model))
}

func (s *Server) handleClass(w http.ResponseWriter, r *http.Request) {
	res, classes, _ := s.current()
	if res == nil {
		http.Error(w, "Model not available yet", http.StatusServiceUnavailable)
		return
	}

	name := mux.Vars(r)["name"]
	c, ok := res.Model.Class(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Class %q not found", name), http.StatusNotFound)
		return
	}

	detail := ClassDetail{
		Class:      c,
		Ancestors:  classes.Ancestors(name),
		Subclasses: classes.Subclasses(name),
	}
	if res.Index != nil {
		if info, ok := res.Index.Class(name); ok {
			detail.FillColor = info.FillColor
			detail.ShapeIDs = info.ShapeIDs
		}
	}
	writeJSON(w, r, detail)
}

func (s *Server) handleClassSource(w http.ResponseWriter, r *http.Request) {
	res, _, version := s.current()
	if res == nil {
		http.Error(w, "Model not available yet", http.StatusServiceUnavailable)
		return
	}

	name := mux.Vars(r)["name"]
	c, ok := res.Model.Class(name)
	if !ok {
		http.Error(w, fmt.Sprintf("Class %q not found", name), http.StatusNotFound)
		return
	}

	lang := strings.ToLower(r.URL.Query().Get("lang"))
	if lang == "" {
		lang = "java"
	}

	key := fmt.Sprintf("%d/%s/%s", version, lang, name)
	src, hit := s.sources.Get(key)
	if !hit {
		e, err := emit.Lookup(lang, s.emitOpts)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		src, err = e.Emit(c)
		if err != nil {
			logging.ErrorContext(r.Context(), "failed to emit class", "class", name, "lang", lang, "error", err)
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
			return
		}
		s.sources.Add(key, src)
	}
	logging.DebugContext(r.Context(), "serving source", "class", name, "lang", lang, "cached", hit)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write(src)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	res, _, _ := s.current()
	if res == nil {
		http.Error(w, "Report not available yet", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, r, ReportResponse{
		File:   res.File,
		Report: res.Report,
		Cycles: res.Cycles,
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorContext(r.Context(), "failed to encode response", "error", err)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		// Ends open SSE streams before the server stops waiting on them
		_ = s.publisher.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Starting web server", "url", fmt.Sprintf("http://localhost:%d", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
