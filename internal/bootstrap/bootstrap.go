// Package bootstrap assembles the rule repository from configured sources.
//
// The bootstrapper runs every configured source through the loader factory
// and merges the results into one repository. Failures are isolated at two
// granularities: a malformed rule file is skipped within its source, and a
// failing source (missing directory, unknown type) is skipped without
// affecting the other sources. Both are recorded in per-source LoadResults
// and the aggregate Stats.
//
// Configuration comes from indexed environment keys (SourceList:i:SourceType
// and SourceList:i:Path), an optional .env file, or a YAML config file at
// the XDG config path.
package bootstrap

import (
	"time"

	"ruleshub/internal/loader"
	"ruleshub/internal/logging"
	"ruleshub/internal/repository"
)

// Load statuses for a single source.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// LoadResult records the outcome of loading one configured source.
type LoadResult struct {
	SourceIndex int                `yaml:"source_index"`
	SourceType  string             `yaml:"source_type"`
	Path        string             `yaml:"path"`
	Status      string             `yaml:"status"`
	RulesLoaded int                `yaml:"rules_loaded"`
	FileErrors  []loader.LoadError `yaml:"file_errors,omitempty"`
	Error       string             `yaml:"error,omitempty"`
	Duration    time.Duration      `yaml:"duration"`
}

// IsSuccess reports whether this source loaded.
func (r LoadResult) IsSuccess() bool { return r.Status == StatusSuccess }

// Stats aggregates the bootstrap outcome across all sources.
type Stats struct {
	TotalSources      int              `yaml:"total_sources"`
	SuccessfulSources int              `yaml:"successful_sources"`
	FailedSources     int              `yaml:"failed_sources"`
	TotalRulesLoaded  int              `yaml:"total_rules_loaded"`
	TotalFileErrors   int              `yaml:"total_file_errors"`
	Duration          time.Duration    `yaml:"duration"`
	Sources           []LoadResult     `yaml:"sources"`
	Repository        repository.Stats `yaml:"repository"`
}

// Bootstrapper builds a repository from an explicit configuration.
type Bootstrapper struct {
	config  *Config
	logger  *logging.AppLogger
	results []LoadResult
}

// New creates a bootstrapper for the given configuration.
func New(cfg *Config, logger *logging.AppLogger) *Bootstrapper {
	return &Bootstrapper{config: cfg, logger: logger}
}

// Bootstrap loads every configured source into a fresh repository and
// returns it together with aggregate statistics. A source that fails does
// not prevent the others from loading. With zero sources configured the
// service starts with an empty repository; callers log a warning rather
// than refusing to start.
func (b *Bootstrapper) Bootstrap() (*repository.Repository, Stats) {
	start := time.Now()
	repo := repository.New()
	b.results = nil

	b.logger.Info("Starting bootstrap", "sources", len(b.config.Sources))
	if len(b.config.Sources) == 0 {
		b.logger.Warn("No rule sources configured, starting with an empty repository")
	}

	for i, src := range b.config.Sources {
		result := b.loadSource(i, src, repo)
		b.results = append(b.results, result)
	}

	stats := b.stats(repo, time.Since(start))
	b.logSummary(stats)
	return repo, stats
}

// loadSource runs one configured source, registering its loader with the
// repository for later refreshes only when the source is usable.
func (b *Bootstrapper) loadSource(index int, src SourceConfig, repo *repository.Repository) LoadResult {
	result := LoadResult{
		SourceIndex: index,
		SourceType:  src.SourceType,
		Path:        src.Path,
		Status:      StatusFailed,
	}
	start := time.Now()
	defer func() { result.Duration = time.Since(start) }()

	if src.Path == "" {
		result.Error = "missing path"
		b.logger.Error("Source misconfigured", "index", index, "type", src.SourceType, "error", result.Error)
		return result
	}

	ldr, err := loader.New(src.SourceType, src.Path)
	if err != nil {
		result.Error = err.Error()
		b.logger.Error("Source misconfigured", "index", index, "type", src.SourceType, "error", err)
		return result
	}

	loaded, fileErrs, err := ldr.Load()
	if err != nil {
		result.Error = err.Error()
		b.logger.Error("Source failed to load", "index", index, "dir", src.Path, "error", err)
		return result
	}

	result.FileErrors = fileErrs
	for _, le := range fileErrs {
		b.logger.Warn("Rule file skipped", "file", le.File, "reason", le.Reason)
	}

	for _, rule := range loaded {
		if err := repo.Add(rule); err != nil {
			// Duplicate across sources: first one wins, record and move on.
			result.FileErrors = append(result.FileErrors, loader.LoadError{
				File:   rule.Source.Info().Path,
				Reason: err.Error(),
			})
			b.logger.Warn("Duplicate rule id, keeping first occurrence", "id", rule.ID)
			continue
		}
		result.RulesLoaded++
	}

	repo.RegisterLoader(ldr)
	result.Status = StatusSuccess
	b.logger.Info("Source loaded", "index", index, "dir", src.Path, "rules", result.RulesLoaded,
		"skipped", len(result.FileErrors))
	return result
}

// Results returns the per-source outcomes of the last Bootstrap call.
func (b *Bootstrapper) Results() []LoadResult {
	return b.results
}

func (b *Bootstrapper) stats(repo *repository.Repository, elapsed time.Duration) Stats {
	stats := Stats{
		TotalSources: len(b.results),
		Duration:     elapsed,
		Sources:      b.results,
		Repository:   repo.Stats(),
	}
	for _, r := range b.results {
		if r.IsSuccess() {
			stats.SuccessfulSources++
		} else {
			stats.FailedSources++
		}
		stats.TotalRulesLoaded += r.RulesLoaded
		stats.TotalFileErrors += len(r.FileErrors)
	}
	return stats
}

func (b *Bootstrapper) logSummary(stats Stats) {
	b.logger.Info("Bootstrap completed",
		"rules", stats.TotalRulesLoaded,
		"sources_ok", stats.SuccessfulSources,
		"sources_failed", stats.FailedSources,
		"file_errors", stats.TotalFileErrors,
		"duration", stats.Duration,
	)
}
