// Package main is the entry point for the ruleshub MCP server.
//
// The application follows this startup sequence:
//
// 1. Initialize logging (stderr, since the MCP transport owns stdout)
// 2. Resolve source configuration from environment or config file
// 3. Bootstrap the rule repository from the configured sources
// 4. Serve the rule tools over stdio, optionally watching for changes
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ruleshub/internal/bootstrap"
	"ruleshub/internal/loader"
	"ruleshub/internal/logging"
	"ruleshub/internal/mcp"
	"ruleshub/internal/repository"
	"ruleshub/internal/rules"
	"ruleshub/internal/watch"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ruleshub",
		Short:        "MCP server that serves agent rules from configured sources",
		Long:         "ruleshub loads agent rules from YAML and markdown directories and exposes them to MCP clients for discovery and retrieval.",
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the source configuration file",
	}
	cmd.AddCommand(newConfigInitCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var path string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file with an example source entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = bootstrap.ConfigPath()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			}

			cfg := &bootstrap.Config{
				Sources: []bootstrap.SourceConfig{
					{SourceType: rules.SourceTypeYAMLFile, Path: "/path/to/your/rules"},
				},
			}
			if err := cfg.SaveTo(path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote starter config to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "config file location (default: the platform config path)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func newServeCmd() *cobra.Command {
	var watchSources bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Bootstrap the rule repository and serve it over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()

			repo, err := bootstrapRepository(logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watchSources {
				w, err := watch.New(repo, logger, debounce)
				if err != nil {
					return fmt.Errorf("failed to start source watcher: %w", err)
				}
				go func() {
					if err := w.Run(ctx); err != nil {
						logger.Error("Source watcher stopped", "error", err)
					}
				}()
			}

			return mcp.NewServer(repo, logger).Serve()
		},
	}

	cmd.Flags().BoolVar(&watchSources, "watch", false, "refresh the repository when source directories change")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "delay before refreshing after a change (default 500ms)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	var sourceType string

	cmd := &cobra.Command{
		Use:   "validate [dir ...]",
		Short: "Check rule directories and report files that fail to load",
		Long:  "Validates the given directories, or every configured source when none are given. Exits non-zero if any rule file is invalid.",
		RunE: func(cmd *cobra.Command, args []string) error {
			sources, err := validationSources(args, sourceType)
			if err != nil {
				return err
			}
			if len(sources) == 0 {
				return fmt.Errorf("nothing to validate: no directories given and no sources configured")
			}

			invalid := 0
			for _, src := range sources {
				l, err := loader.New(src.SourceType, src.Path)
				if err != nil {
					return fmt.Errorf("source %q: %w", src.Path, err)
				}
				loaded, fileErrors, err := l.Load()
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", src.Path, err)
					invalid++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rules OK, %d invalid\n", src.Path, len(loaded), len(fileErrors))
				for _, fe := range fileErrors {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", fe.File, fe.Reason)
					invalid++
				}
			}

			if invalid > 0 {
				return fmt.Errorf("%d invalid rule file(s)", invalid)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sourceType, "type", rules.SourceTypeYAMLFile, "source type for directories given as arguments")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Bootstrap from the configured sources and print load statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewAppLogger()

			cfg, err := bootstrap.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			_, stats := bootstrap.New(cfg, logger).Bootstrap()

			out, err := yaml.Marshal(stats)
			if err != nil {
				return fmt.Errorf("failed to render stats: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))

			if stats.FailedSources > 0 {
				return fmt.Errorf("%d source(s) failed to load", stats.FailedSources)
			}
			return nil
		},
	}
}

func bootstrapRepository(logger *logging.AppLogger) (*repository.Repository, error) {
	cfg, err := bootstrap.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	repo, _ := bootstrap.New(cfg, logger).Bootstrap()
	return repo, nil
}

// validationSources maps CLI arguments to source configs, falling back to
// the configured sources when no directories are given.
func validationSources(dirs []string, sourceType string) ([]bootstrap.SourceConfig, error) {
	if len(dirs) > 0 {
		sources := make([]bootstrap.SourceConfig, 0, len(dirs))
		for _, dir := range dirs {
			sources = append(sources, bootstrap.SourceConfig{SourceType: sourceType, Path: dir})
		}
		return sources, nil
	}

	cfg, err := bootstrap.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg.Sources, nil
}
