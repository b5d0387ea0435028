package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Extension is the file extension of ruka source files.
const Extension = ".ruka"

// Source is one named buffer handed to the compiler. A non-nil Err marks a
// source that could not be loaded; its unit fails without being scanned.
type Source struct {
	Name string
	Text []byte
	Err  error
}

// NewSource wraps an in-memory buffer.
func NewSource(name, text string) Source {
	return Source{Name: name, Text: []byte(text)}
}

// ReadSources loads every path in order. Read failures are recorded on the
// returned Source rather than returned, so one bad file never stops the
// others from being compiled.
func ReadSources(paths []string) []Source {
	out := make([]Source, 0, len(paths))
	for _, path := range paths {
		out = append(out, readSource(path))
	}
	return out
}

func readSource(path string) Source {
	src := Source{Name: path}
	if err := validateExtension(path); err != nil {
		src.Err = err
		return src
	}
	b, err := os.ReadFile(path)
	if err != nil {
		src.Err = fmt.Errorf("reading %s: %w", path, err)
		return src
	}
	src.Text = b
	return src
}

func validateExtension(path string) error {
	if filepath.Ext(path) != Extension {
		return fmt.Errorf("source %s must have %s extension", path, Extension)
	}
	return nil
}

// artifactName maps a unit name to the file its tree is written to,
// relative to the output directory. A relative unit path keeps its
// directories; any other path is reduced to its base name.
func artifactName(unit string) string {
	name := filepath.Clean(unit)
	if !filepath.IsLocal(name) {
		name = filepath.Base(name)
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".tree"
}
