// Package watcher notices diagram edits so generation can re-run.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/drawio-codegen/pkg/config"
	"github.com/ritzau/drawio-codegen/pkg/finder"
	"github.com/ritzau/drawio-codegen/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeDiagram ChangeType = iota // A diagram was written, created or renamed
	ChangeTypeConfig                    // drawio-codegen.toml or .env changed
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeDiagram:
		return "diagram"
	case ChangeTypeConfig:
		return "config"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups raw fsnotify events before they are handed on
const batchWindow = 100 * time.Millisecond

// FileWatcher watches a diagram file, or a directory of diagrams
type FileWatcher struct {
	watcher *fsnotify.Watcher
	input   string
	single  string // Base name of the watched file when input is a file
	events  chan ChangeEvent
	once    sync.Once
}

// NewFileWatcher creates a watcher for a diagram file or directory
func NewFileWatcher(input string) (*FileWatcher, error) {
	info, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("cannot watch %s: %w", input, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		input:   input,
		events:  make(chan ChangeEvent, 100),
	}
	if !info.IsDir() {
		fw.single = filepath.Base(input)
	}

	return fw, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	if fw.single != "" {
		// Editors often save by renaming over the file, so watch its directory
		dir := filepath.Dir(fw.input)
		if err := fw.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	} else if err := fw.watchTree(fw.input); err != nil {
		return err
	}

	logging.Info("started watching", "path", fw.input)

	go fw.processEvents(ctx)

	return nil
}

func (fw *FileWatcher) watchTree(root string) error {
	count := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		if err := fw.watcher.Add(path); err != nil {
			logging.Warn("failed to watch directory", "path", path, "error", err)
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}

	logging.Debug("monitoring directories for diagrams", "count", count)
	return nil
}

// classify maps a raw event to a change type; false means ignore it
func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeType, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
		return 0, false
	}

	name := filepath.Base(event.Name)
	if name == config.FileName || name == ".env" {
		return ChangeTypeConfig, true
	}
	if fw.single != "" {
		return ChangeTypeDiagram, name == fw.single
	}
	return ChangeTypeDiagram, finder.IsDiagramFile(name)
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, t := range []ChangeType{ChangeTypeConfig, ChangeTypeDiagram} {
			if paths := pending[t]; len(paths) > 0 {
				fw.events <- ChangeEvent{Type: t, Paths: paths, Timestamp: time.Now()}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	defer fw.close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}

			// New directories in a watched tree need their own watch
			if fw.single == "" && event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fw.watchTree(event.Name)
					continue
				}
			}

			if t, ok := fw.classify(event); ok {
				logging.Trace("file event", "path", event.Name, "op", event.Op.String())
				pending[t] = append(pending[t], event.Name)
				flushTimer.Reset(batchWindow)
			}

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) close() {
	fw.once.Do(func() {
		_ = fw.watcher.Close()
		close(fw.events)
	})
}

// Events returns the channel of change events. It is closed when the
// watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
