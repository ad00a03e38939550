// Package emit turns class definitions into source files.
package emit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ritzau/drawio-codegen/pkg/logging"
	"github.com/ritzau/drawio-codegen/pkg/model"
)

// Emitter renders one class definition as source text. Calls are
// independent of each other and may happen in any order.
type Emitter interface {
	Language() string
	FileName(className string) string
	Emit(c *model.ClassDef) ([]byte, error)
}

// Options configure emitters that need more than the class itself
type Options struct {
	Package string // Package name for Go sources
}

type factory func(Options) Emitter

var registry = map[string]factory{
	"java": func(Options) Emitter { return NewJavaEmitter() },
	"go":   func(o Options) Emitter { return NewGoEmitter(o.Package) },
}

// Languages returns the names accepted by Lookup, sorted
func Languages() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the emitter registered for a language name
func Lookup(lang string, opts Options) (Emitter, error) {
	f, ok := registry[strings.ToLower(lang)]
	if !ok {
		return nil, fmt.Errorf("unknown language %q (supported: %s)", lang, strings.Join(Languages(), ", "))
	}
	return f(opts), nil
}

// File is one rendered class
type File struct {
	Class   string `json:"class"`
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// EmitAll renders every class of the model, ordered by class name
func EmitAll(m *model.ClassModel, e Emitter) ([]File, error) {
	files := make([]File, 0, len(m.Classes))
	for _, c := range m.Sorted() {
		content, err := e.Emit(c)
		if err != nil {
			return nil, fmt.Errorf("emitting %s: %w", c.Name, err)
		}
		files = append(files, File{
			Class:   c.Name,
			Name:    e.FileName(c.Name),
			Content: content,
		})
	}
	return files, nil
}

// WriteAll renders every class and writes it into dir, creating dir if
// needed. Returns the written paths.
func WriteAll(dir string, m *model.ClassModel, e Emitter) ([]string, error) {
	files, err := EmitAll(m, e)
	if err != nil {
		return nil, err
	}
	return WriteFiles(dir, files)
}

// WriteFiles writes rendered files into dir, creating dir if needed
func WriteFiles(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Content, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		logging.Info("Generated", "file", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// capitalize upper-cases the first rune, leaving the rest untouched
func capitalize(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return ""
	}
	return string(unicode.ToUpper(r)) + name[size:]
}
