package loader

import (
	"fmt"
	"os"
	"strings"

	"ruleshub/internal/logging"
	"ruleshub/internal/rules"
	"ruleshub/pkg/fileops"

	"gopkg.in/yaml.v3"
)

// yamlExtensions contains supported YAML rule file extensions.
var yamlExtensions = []string{".yaml", ".yml"}

// YAMLDirLoader loads rules from a directory of YAML documents. Each file
// holds one rule with keys id, description, language, context, is_core,
// tags and rule (the body text).
type YAMLDirLoader struct {
	dir string
}

// NewYAMLDirLoader creates a loader for the given directory.
func NewYAMLDirLoader(dir string) *YAMLDirLoader {
	return &YAMLDirLoader{dir: dir}
}

func (l *YAMLDirLoader) SourceType() string { return rules.SourceTypeYAMLFile }

func (l *YAMLDirLoader) Dir() string { return l.dir }

// Load scans the directory and parses every YAML file. Files that fail
// validation are skipped and reported; the scan never aborts for a single
// bad file.
func (l *YAMLDirLoader) Load() ([]*rules.Rule, []LoadError, error) {
	files, err := scanRuleDir(l.dir, yamlExtensions)
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

	logging.Debug("YAML rule scan completed",
		"dir", l.dir,
		"totalFiles", len(files),
		"validRules", len(loaded),
		"skipped", len(loadErrs),
	)

	return loaded, loadErrs, nil
}

// loadRuleFile parses and validates a single YAML rule file.
func (l *YAMLDirLoader) loadRuleFile(path string) (*rules.Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml parsing error: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("empty document")
	}

	id, err := requiredString(doc, "id")
	if err != nil {
		return nil, err
	}

	description, err := optionalString(doc, "description")
	if err != nil {
		return nil, err
	}
	if description == "" {
		// Data-quality issue, not a load failure.
		logging.Debug("Rule file has no description", "file", path, "id", id)
	}

	language, err := optionalString(doc, "language")
	if err != nil {
		return nil, err
	}

	context, err := optionalString(doc, "context")
	if err != nil {
		return nil, err
	}

	tags, err := optionalStringList(doc, "tags")
	if err != nil {
		return nil, err
	}

	isCore, err := coreFlag(doc)
	if err != nil {
		return nil, err
	}

	// The body stays in the file; the source loads it on demand. Its
	// presence is still a load-time requirement.
	if _, ok := doc["rule"]; !ok {
		return nil, fmt.Errorf("missing 'rule' field")
	}

	return rules.NewRule(id, description, language, tags, context, isCore, rules.NewYAMLFileSource(path))
}

// coreFlag resolves is_core with its legacy alias always_apply. The alias
// is only consulted when the canonical key is absent and never leaves the
// parser.
func coreFlag(doc map[string]any) (bool, error) {
	for _, key := range []string{"is_core", "always_apply"} {
		raw, ok := doc[key]
		if !ok || raw == nil {
			continue
		}
		b, ok := raw.(bool)
		if !ok {
			return false, fmt.Errorf("'%s' must be a boolean", key)
		}
		return b, nil
	}
	return false, nil
}

func requiredString(doc map[string]any, key string) (string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("missing '%s' field", key)
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("'%s' must be a string", key)
	}
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("'%s' must not be empty", key)
	}
	return s, nil
}

// optionalString treats an absent key and an explicit null the same way.
func optionalString(doc map[string]any, key string) (string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("'%s' must be a string", key)
	}
	return s, nil
}

func optionalStringList(doc map[string]any, key string) ([]string, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("'%s' must be a list", key)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("'%s' must be a list of strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}

// scanRuleDir lists matching rule files in deterministic order.
func scanRuleDir(dir string, extensions []string) ([]string, error) {
	files, err := fileops.ListFiles(dir, extensions)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rules directory: %w", err)
	}
	return files, nil
}
