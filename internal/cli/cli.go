// Package cli implements the mvnpack command-line interface.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mvnpack/pkg/buildinfo"
	"github.com/matzehuels/mvnpack/pkg/cache"
	"github.com/matzehuels/mvnpack/pkg/config"
	"github.com/matzehuels/mvnpack/pkg/metadata"
	"github.com/matzehuels/mvnpack/pkg/provision"
	"github.com/matzehuels/mvnpack/pkg/resolver"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mvnpack"

	// defaultPlan is where the build leaves its installation plan.
	defaultPlan = ".xmvn-reactor"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "mvnpack installs Java artifacts into distribution packages",
		Long:         `mvnpack resolves Maven artifacts against system metadata, applies packaging rules and turns a build's installation plan into distribution packages with file lists and metadata.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "configuration file (default $"+config.EnvConfig+" or $XDG_CONFIG_HOME/mvnpack/config.toml)")

	// Register all subcommands
	root.AddCommand(c.installCommand())
	root.AddCommand(c.resolveCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Wiring
// =============================================================================

// config loads the configuration once per invocation.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path() != "" {
		c.Logger.Debug("loaded configuration", "path", cfg.Path())
	}
	c.cfg = cfg
	return cfg, nil
}

// openStore loads the metadata repositories behind a spinner.
func (c *CLI) openStore(ctx context.Context, cfg *config.Config) (*metadata.Store, error) {
	spinner := newSpinnerWithContext(ctx, "Loading metadata...")
	spinner.Start()

	prog := newProgress(c.Logger)
	store, err := metadata.Load(ctx, cfg.Resolver.MetadataRepositories, metadata.Options{
		IgnoreDuplicates: cfg.Resolver.IgnoreDuplicates,
		Logger:           c.Logger,
	})
	spinner.Stop()
	if err != nil {
		return nil, err
	}
	prog.done("Loaded metadata", "fragments", len(store.Fragments()), "entries", store.Len())
	return store, nil
}

// newResolver composes the resolver over store with the configured cache
// and provisioning agent.
func (c *CLI) newResolver(cfg *config.Config, store *metadata.Store) (*resolver.Resolver, error) {
	cs, err := cacheStore(cfg)
	if err != nil {
		return nil, err
	}
	return resolver.New(store, resolver.Options{
		Cache:  cs,
		Agent:  provision.New(cfg.Resolver.ProvisionSocket, c.Logger),
		Logger: c.Logger,
	}), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, or the XDG default
// (~/.cache/mvnpack/).
func cacheDir(cfg *config.Config) (string, error) {
	if cfg != nil && cfg.Resolver.CacheDir != "" {
		return cfg.Resolver.CacheDir, nil
	}
	return cache.DefaultDir()
}

func cacheStore(cfg *config.Config) (*cache.Store, error) {
	dir, err := cacheDir(cfg)
	if err != nil {
		return nil, err
	}
	return cache.New(dir), nil
}
