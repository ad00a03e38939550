package drawio

import (
	"fmt"
	"os"
)

// Loader reads raw diagram bytes
type Loader interface {
	Load(path string) ([]byte, error)
}

// FileLoader is the default Loader that reads from the filesystem
type FileLoader struct{}

// NewLoader creates a new filesystem loader
func NewLoader() Loader {
	return &FileLoader{}
}

// Load reads the whole diagram file
func (l *FileLoader) Load(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading diagram: %w", err)
	}
	return data, nil
}
