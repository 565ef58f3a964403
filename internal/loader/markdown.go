package loader

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"ruleshub/internal/logging"
	"ruleshub/internal/rules"

	"github.com/adrg/frontmatter"
)

// markdownExtensions contains supported markdown rule file extensions.
var markdownExtensions = []string{".md", ".markdown"}

// ruleFrontmatter is the metadata block expected at the top of a markdown
// rule file. AlwaysApply is the legacy alias for is_core and is resolved
// here, never exposed further.
type ruleFrontmatter struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Language    string   `yaml:"language"`
	Context     string   `yaml:"context"`
	Tags        []string `yaml:"tags"`
	IsCore      *bool    `yaml:"is_core"`
	AlwaysApply *bool    `yaml:"always_apply"`
}

// MarkdownDirLoader loads rules from a directory of markdown files whose
// YAML frontmatter carries the rule metadata. The markdown body below the
// frontmatter is the rule content.
type MarkdownDirLoader struct {
	dir string
}

// NewMarkdownDirLoader creates a loader for the given directory.
func NewMarkdownDirLoader(dir string) *MarkdownDirLoader {
	return &MarkdownDirLoader{dir: dir}
}

func (l *MarkdownDirLoader) SourceType() string { return rules.SourceTypeMarkdown }

func (l *MarkdownDirLoader) Dir() string { return l.dir }

// Load scans the directory with the same skip-and-continue policy as the
// YAML loader.
func (l *MarkdownDirLoader) Load() ([]*rules.Rule, []LoadError, error) {
	files, err := scanRuleDir(l.dir, markdownExtensions)
	if err != nil {
		return nil, nil, err
	}

	var (
		loaded   []*rules.Rule
		loadErrs []LoadError
	)

	for _, path := range files {
		rule, err := l.loadRuleFile(path)
		if err != nil {
			logging.Debug("Skipping rule file", "file", path, "reason", err)
			loadErrs = append(loadErrs, LoadError{File: path, Reason: err.Error()})
			continue
		}
		loaded = append(loaded, rule)
	}

	logging.Debug("Markdown rule scan completed",
		"dir", l.dir,
		"totalFiles", len(files),
		"validRules", len(loaded),
		"skipped", len(loadErrs),
	)

	return loaded, loadErrs, nil
}

func (l *MarkdownDirLoader) loadRuleFile(path string) (*rules.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var matter ruleFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &matter)
	if err != nil {
		return nil, fmt.Errorf("no valid frontmatter found: %w", err)
	}

	if strings.TrimSpace(matter.ID) == "" {
		return nil, fmt.Errorf("missing 'id' field")
	}
	if matter.Description == "" {
		logging.Debug("Rule file has no description", "file", path, "id", matter.ID)
	}
	if strings.TrimSpace(string(body)) == "" {
		return nil, fmt.Errorf("markdown body is empty")
	}

	isCore := false
	if matter.IsCore != nil {
		isCore = *matter.IsCore
	} else if matter.AlwaysApply != nil {
		isCore = *matter.AlwaysApply
	}

	return rules.NewRule(matter.ID, matter.Description, matter.Language, matter.Tags,
		matter.Context, isCore, rules.NewMarkdownFileSource(path))
}
