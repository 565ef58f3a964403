// Package loader turns directories of rule files into Rule records.
//
// Each loader owns one directory and one file format. Loading is a
// partial-failure design: a malformed file produces a LoadError entry and
// the scan continues, so one bad file never prevents the rest of a source
// from loading. Whole-source failures (missing directory) are the only
// errors returned directly.
//
// Loaders are constructed through New, which resolves the configured source
// type against a small registry. Adding a source kind means registering a
// constructor here; the repository and bootstrap layers only ever see the
// Loader interface.
package loader

import (
	"errors"
	"fmt"

	"ruleshub/internal/rules"
)

// ErrUnknownSourceType is returned by New for a source type with no
// registered loader.
var ErrUnknownSourceType = errors.New("unknown source type")

// LoadError describes a single rule file that failed validation and was
// skipped.
type LoadError struct {
	File   string
	Reason string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Reason)
}

// Loader produces rules from a single configured source directory.
type Loader interface {
	// SourceType returns the configured type name ("YamlFile", "MarkdownDir").
	SourceType() string

	// Dir returns the directory this loader scans.
	Dir() string

	// Load scans the directory and returns all valid rules in file-name
	// order, plus one LoadError per skipped file. The error return is
	// reserved for whole-source failures such as a missing directory.
	Load() ([]*rules.Rule, []LoadError, error)
}

// constructors maps source type names to loader constructors.
var constructors = map[string]func(dir string) Loader{
	rules.SourceTypeYAMLFile: func(dir string) Loader { return NewYAMLDirLoader(dir) },
	rules.SourceTypeMarkdown: func(dir string) Loader { return NewMarkdownDirLoader(dir) },
}

// New creates the loader registered for the given source type.
func New(sourceType, dir string) (Loader, error) {
	construct, ok := constructors[sourceType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, sourceType)
	}
	return construct(dir), nil
}

// SupportedTypes returns the registered source type names.
func SupportedTypes() []string {
	types := make([]string, 0, len(constructors))
	for name := range constructors {
		types = append(types, name)
	}
	return types
}
