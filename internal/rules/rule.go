package rules

import (
	"fmt"
	"strings"
)

// Rule is a single agent rule: metadata plus an owned content source.
// The ID is the stable key; everything else describes how and when the
// rule applies. Content is never embedded here.
type Rule struct {
	// ID uniquely identifies the rule within a repository.
	ID string

	// Description is a human-readable summary. An empty description is a
	// data-quality issue, not an error.
	Description string

	// Language the rule applies to. Empty means language-agnostic.
	Language string

	// Tags categorize the rule. Order is irrelevant for querying and
	// duplicates are kept as-is.
	Tags []string

	// Context scopes the rule to e.g. a project. Empty means the rule is
	// general and applies regardless of any caller-specified context.
	Context string

	// IsCore marks a rule as always-relevant. Core rules are excluded from
	// general metadata discovery and retrieved in bulk instead.
	IsCore bool

	// Source produces the rule's body text on demand.
	Source ContentSource
}

// NewRule validates and constructs a Rule. The id must be non-empty and a
// content source must be provided; tags are trimmed and empty entries
// dropped, matching how the loader normalizes parsed files.
func NewRule(id, description, language string, tags []string, context string, isCore bool, source ContentSource) (*Rule, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("rule id cannot be empty")
	}
	if source == nil {
		return nil, fmt.Errorf("rule %q: content source cannot be nil", id)
	}

	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		if t := strings.TrimSpace(tag); t != "" {
			cleaned = append(cleaned, t)
		}
	}

	return &Rule{
		ID:          id,
		Description: description,
		Language:    language,
		Tags:        cleaned,
		Context:     context,
		IsCore:      isCore,
		Source:      source,
	}, nil
}

// LoadContent loads the rule body from the content source.
func (r *Rule) LoadContent() (string, error) {
	return r.Source.Load()
}

// HasTag reports whether the rule carries the given tag (case-insensitive).
func (r *Rule) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the rule carries at least one of the given tags.
func (r *Rule) HasAnyTag(tags []string) bool {
	for _, tag := range tags {
		if r.HasTag(tag) {
			return true
		}
	}
	return false
}

// HasAllTags reports whether the rule carries every one of the given tags.
func (r *Rule) HasAllTags(tags []string) bool {
	for _, tag := range tags {
		if !r.HasTag(tag) {
			return false
		}
	}
	return true
}

// MatchesLanguage reports whether the rule's language equals the given one
// (case-insensitive). Language-agnostic rules never match a non-empty filter.
func (r *Rule) MatchesLanguage(language string) bool {
	if r.Language == "" {
		return false
	}
	return strings.EqualFold(r.Language, language)
}

// MatchesContext implements the context-union policy: a general rule (no
// context) matches any filter, a context-specific rule matches only its own
// context (case-insensitive).
func (r *Rule) MatchesContext(context string) bool {
	if r.Context == "" {
		return true
	}
	return strings.EqualFold(r.Context, context)
}

func (r *Rule) String() string {
	return fmt.Sprintf("Rule(%s: %s)", r.ID, r.Description)
}
