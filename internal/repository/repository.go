package repository

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"ruleshub/internal/loader"
	"ruleshub/internal/logging"
	"ruleshub/internal/rules"

	lru "github.com/hashicorp/golang-lru/v2"
)

// TagsMode selects how a multi-tag filter combines.
type TagsMode string

const (
	// TagsAny includes a rule when it carries at least one of the tags.
	TagsAny TagsMode = "any"
	// TagsAll includes a rule only when it carries every tag.
	TagsAll TagsMode = "all"
)

// contentCacheSize bounds the number of rule bodies kept in memory.
const contentCacheSize = 256

// Criteria composes the individual filters; only supplied fields apply and
// all supplied fields must match (logical AND).
type Criteria struct {
	Language         string
	Tags             []string
	TagsMode         TagsMode
	DescriptionQuery string

	// Context pointer distinguishes "no filter" (nil: general rules only)
	// from a supplied value (general rules plus matching context).
	Context *string

	// IsCore filters on the core flag when non-nil.
	IsCore *bool
}

// Stats summarizes the repository for diagnostics.
type Stats struct {
	TotalRules     int      `yaml:"total_rules" json:"totalRules"`
	TotalLanguages int      `yaml:"total_languages" json:"totalLanguages"`
	TotalTags      int      `yaml:"total_tags" json:"totalTags"`
	TotalContexts  int      `yaml:"total_contexts" json:"totalContexts"`
	Languages      []string `yaml:"languages" json:"languages"`
	Tags           []string `yaml:"tags" json:"tags"`
	Contexts       []string `yaml:"contexts" json:"contexts"`
}

// Repository is the in-memory rule index. The zero value is not usable;
// construct with New.
type Repository struct {
	mu      sync.RWMutex
	byID    map[string]*rules.Rule
	order   []string // insertion order of ids, keeps listing deterministic
	loaders []loader.Loader

	content *lru.Cache[string, string]
}

// New creates an empty repository.
func New() *Repository {
	cache, err := lru.New[string, string](contentCacheSize)
	if err != nil {
		// lru.New only fails for a non-positive size.
		panic(fmt.Sprintf("content cache init: %v", err))
	}
	return &Repository{
		byID:    make(map[string]*rules.Rule),
		content: cache,
	}
}

// Add inserts a rule. A duplicate id is rejected so the first loaded rule
// wins; callers record the rejection and continue.
func (r *Repository) Add(rule *rules.Rule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[rule.ID]; exists {
		return fmt.Errorf("rule with ID '%s' already exists", rule.ID)
	}
	r.byID[rule.ID] = rule
	r.order = append(r.order, rule.ID)
	return nil
}

// RegisterLoader records a loader so Refresh can rebuild from it later.
func (r *Repository) RegisterLoader(l loader.Loader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders = append(r.loaders, l)
}

// SourceDirs returns the directory of every registered loader.
func (r *Repository) SourceDirs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	dirs := make([]string, 0, len(r.loaders))
	for _, l := range r.loaders {
		dirs = append(dirs, l.Dir())
	}
	return dirs
}

// Len returns the number of rules.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// Exists reports whether a rule id is present.
func (r *Repository) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// All returns every rule in insertion order.
func (r *Repository) All() []*rules.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// snapshot copies the current rule list; callers hold at least a read lock.
func (r *Repository) snapshot() []*rules.Rule {
	out := make([]*rules.Rule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// ByID returns the rule with the given id, or a NotFoundError carrying it.
func (r *Repository) ByID(id string) (*rules.Rule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.byID[id]
	if !ok {
		return nil, &rules.NotFoundError{ID: id}
	}
	return rule, nil
}

// ByLanguage returns rules whose language matches case-insensitively.
// Language-agnostic rules never match.
func (r *Repository) ByLanguage(language string) []*rules.Rule {
	return r.filter(func(rule *rules.Rule) bool {
		return rule.MatchesLanguage(language)
	})
}

// ByTag returns rules carrying the tag (case-insensitive membership).
func (r *Repository) ByTag(tag string) []*rules.Rule {
	return r.filter(func(rule *rules.Rule) bool {
		return rule.HasTag(tag)
	})
}

// ByTagsAny returns rules carrying at least one of the tags.
func (r *Repository) ByTagsAny(tags []string) []*rules.Rule {
	return r.filter(func(rule *rules.Rule) bool {
		return rule.HasAnyTag(tags)
	})
}

// ByTagsAll returns rules carrying every one of the tags.
func (r *Repository) ByTagsAll(tags []string) []*rules.Rule {
	return r.filter(func(rule *rules.Rule) bool {
		return rule.HasAllTags(tags)
	})
}

// SearchDescription returns rules whose description contains the query,
// case-insensitively. An empty result is a valid answer, not an error.
func (r *Repository) SearchDescription(query string) []*rules.Rule {
	q := strings.ToLower(query)
	return r.filter(func(rule *rules.Rule) bool {
		return strings.Contains(strings.ToLower(rule.Description), q)
	})
}

// ByCriteria applies every supplied filter as a logical AND.
func (r *Repository) ByCriteria(c Criteria) []*rules.Rule {
	return r.filter(func(rule *rules.Rule) bool {
		if c.Language != "" && !rule.MatchesLanguage(c.Language) {
			return false
		}
		if len(c.Tags) > 0 {
			if c.TagsMode == TagsAll {
				if !rule.HasAllTags(c.Tags) {
					return false
				}
			} else {
				if !rule.HasAnyTag(c.Tags) {
					return false
				}
			}
		}
		if c.DescriptionQuery != "" &&
			!strings.Contains(strings.ToLower(rule.Description), strings.ToLower(c.DescriptionQuery)) {
			return false
		}
		if c.Context == nil {
			// No context filter: general rules only.
			if rule.Context != "" {
				return false
			}
		} else if !rule.MatchesContext(*c.Context) {
			return false
		}
		if c.IsCore != nil && rule.IsCore != *c.IsCore {
			return false
		}
		return true
	})
}

func (r *Repository) filter(keep func(*rules.Rule) bool) []*rules.Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*rules.Rule
	for _, id := range r.order {
		if rule := r.byID[id]; keep(rule) {
			out = append(out, rule)
		}
	}
	return out
}

// AvailableLanguages returns every distinct language, sorted.
func (r *Repository) AvailableLanguages() []string {
	return r.distinct(func(rule *rules.Rule) []string {
		if rule.Language == "" {
			return nil
		}
		return []string{rule.Language}
	})
}

// AvailableTags returns every distinct tag, sorted.
func (r *Repository) AvailableTags() []string {
	return r.distinct(func(rule *rules.Rule) []string {
		return rule.Tags
	})
}

// AvailableContexts returns every distinct non-empty context, sorted.
func (r *Repository) AvailableContexts() []string {
	return r.distinct(func(rule *rules.Rule) []string {
		if rule.Context == "" {
			return nil
		}
		return []string{rule.Context}
	})
}

func (r *Repository) distinct(values func(*rules.Rule) []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, rule := range r.byID {
		for _, v := range values(rule) {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Content resolves the rule then loads its body. Loaded bodies are cached
// per rule id; a load failure affects only this call and is never cached.
func (r *Repository) Content(id string) (string, error) {
	rule, err := r.ByID(id)
	if err != nil {
		return "", err
	}

	if body, ok := r.content.Get(id); ok {
		return body, nil
	}

	body, err := rule.LoadContent()
	if err != nil {
		return "", err
	}
	r.content.Add(id, body)
	return body, nil
}

// Stats returns aggregate counts for diagnostics.
func (r *Repository) Stats() Stats {
	languages := r.AvailableLanguages()
	tags := r.AvailableTags()
	contexts := r.AvailableContexts()

	return Stats{
		TotalRules:     r.Len(),
		TotalLanguages: len(languages),
		TotalTags:      len(tags),
		TotalContexts:  len(contexts),
		Languages:      languages,
		Tags:           tags,
		Contexts:       contexts,
	}
}

// ReplaceAll swaps in a fresh index built from the given rules, rejecting
// duplicates the same way Add does. The swap is atomic with respect to
// readers. Returns one error per rejected duplicate.
func (r *Repository) ReplaceAll(ruleSet []*rules.Rule) []error {
	byID := make(map[string]*rules.Rule, len(ruleSet))
	order := make([]string, 0, len(ruleSet))
	var dupErrs []error

	for _, rule := range ruleSet {
		if _, exists := byID[rule.ID]; exists {
			dupErrs = append(dupErrs, fmt.Errorf("rule with ID '%s' already exists", rule.ID))
			continue
		}
		byID[rule.ID] = rule
		order = append(order, rule.ID)
	}

	r.mu.Lock()
	r.byID = byID
	r.order = order
	r.mu.Unlock()

	r.content.Purge()
	return dupErrs
}

// Refresh clears and rebuilds the index from every registered loader.
// Per-file and per-source failures are logged and skipped, matching
// bootstrap behavior; readers keep seeing the old index until the new one
// is swapped in. When every source fails the old index is kept and an
// error is returned, so a transient outage never wipes a working index.
func (r *Repository) Refresh() error {
	r.mu.RLock()
	loaders := make([]loader.Loader, len(r.loaders))
	copy(loaders, r.loaders)
	r.mu.RUnlock()

	var rebuilt []*rules.Rule
	failed := 0
	for _, l := range loaders {
		loaded, loadErrs, err := l.Load()
		if err != nil {
			logging.Warn("Refresh: source failed, skipping", "dir", l.Dir(), "error", err)
			failed++
			continue
		}
		for _, le := range loadErrs {
			logging.Warn("Refresh: rule file skipped", "file", le.File, "reason", le.Reason)
		}
		rebuilt = append(rebuilt, loaded...)
	}

	if len(loaders) > 0 && failed == len(loaders) {
		return fmt.Errorf("refresh: all %d sources failed to load, keeping current rules", failed)
	}

	for _, err := range r.ReplaceAll(rebuilt) {
		logging.Warn("Refresh: duplicate rule id", "error", err)
	}

	logging.Info("Repository refreshed", "rules", r.Len())
	return nil
}
