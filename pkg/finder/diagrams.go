package finder

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// IsDiagramFile reports whether a path looks like a draw.io diagram
func IsDiagramFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".drawio", ".xml":
		return true
	}
	return false
}

// FindDiagrams returns the diagram files under root, sorted. A file root is
// returned as is. Directories are walked recursively, skipping .git and
// anything matched by a .gitignore at the root.
func FindDiagrams(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("input not found: %w", err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	ignored := loadIgnore(root)

	var diagrams []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if d.Name() == ".git" || ignored.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		if IsDiagramFile(path) && !ignored.MatchesPath(rel) {
			diagrams = append(diagrams, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(diagrams)
	return diagrams, nil
}

func loadIgnore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return ignore.CompileIgnoreLines()
	}
	return gi
}
