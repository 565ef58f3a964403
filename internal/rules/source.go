package rules

import (
	"bytes"
	"fmt"
	"os"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// Source type names as they appear in configuration and in serialized
// metadata.
const (
	SourceTypeYAMLFile = "YamlFile"
	SourceTypeMarkdown = "MarkdownDir"
)

// SourceInfo identifies where a rule body lives.
type SourceInfo struct {
	SourceType string
	Path       string
}

// ContentSource is the addressing + loading capability for a rule body.
// Each source is owned by exactly one Rule. Load re-reads the backing file
// on every call; caching, if any, belongs to the repository.
type ContentSource interface {
	Load() (string, error)
	Info() SourceInfo
}

// YAMLFileSource loads a rule body from the "rule" key of a YAML document.
type YAMLFileSource struct {
	path string
}

// NewYAMLFileSource creates a content source backed by a YAML rule file.
func NewYAMLFileSource(path string) *YAMLFileSource {
	return &YAMLFileSource{path: path}
}

func (s *YAMLFileSource) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", &ContentLoadError{Path: s.path, Err: err}
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return "", &ContentLoadError{Path: s.path, Err: fmt.Errorf("yaml parsing: %w", err)}
	}

	body, ok := doc["rule"]
	if !ok || body == nil {
		return "", &ContentLoadError{Path: s.path, Err: fmt.Errorf("no 'rule' field found")}
	}

	text, ok := body.(string)
	if !ok {
		return "", &ContentLoadError{Path: s.path, Err: fmt.Errorf("'rule' field is not a string")}
	}

	return text, nil
}

func (s *YAMLFileSource) Info() SourceInfo {
	return SourceInfo{SourceType: SourceTypeYAMLFile, Path: s.path}
}

func (s *YAMLFileSource) String() string {
	return fmt.Sprintf("YAMLFileSource(%s)", s.path)
}

// MarkdownFileSource loads a rule body from a markdown file, stripping the
// YAML frontmatter block that holds the metadata.
type MarkdownFileSource struct {
	path string
}

// NewMarkdownFileSource creates a content source backed by a markdown rule
// file with frontmatter.
func NewMarkdownFileSource(path string) *MarkdownFileSource {
	return &MarkdownFileSource{path: path}
}

func (s *MarkdownFileSource) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", &ContentLoadError{Path: s.path, Err: err}
	}

	var matter struct{}
	body, err := frontmatter.Parse(bytes.NewReader(data), &matter)
	if err != nil {
		return "", &ContentLoadError{Path: s.path, Err: fmt.Errorf("frontmatter parsing: %w", err)}
	}

	return string(body), nil
}

func (s *MarkdownFileSource) Info() SourceInfo {
	return SourceInfo{SourceType: SourceTypeMarkdown, Path: s.path}
}

func (s *MarkdownFileSource) String() string {
	return fmt.Sprintf("MarkdownFileSource(%s)", s.path)
}
