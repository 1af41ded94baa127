// Package config loads mvnpack configuration from TOML.
//
// The file is searched in order at the path given on the command line,
// $MVNPACK_CONFIG, and $XDG_CONFIG_HOME/mvnpack/config.toml (falling back to
// ~/.config/mvnpack/config.toml). A missing file yields [Default].
// MVNPACK_CACHE_DIR and MVNPACK_PROVISION_SOCKET override the corresponding
// resolver settings.
//
// Example:
//
//	[resolver]
//	metadata_repositories = ["/usr/share/maven-metadata"]
//
//	[[repositories]]
//	id = "install"
//	type = "jpp"
//	root = "usr/share/java"
//
//	[[rules]]
//	glob = { group_id = "com.example", artifact_id = "test2" }
//	target_package = "subpackage"
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/mvnpack/pkg/errors"
	"github.com/matzehuels/mvnpack/pkg/repository"
	"github.com/matzehuels/mvnpack/pkg/rules"
)

// Environment variables consulted by [Load].
const (
	EnvConfig          = "MVNPACK_CONFIG"
	EnvCacheDir        = "MVNPACK_CACHE_DIR"
	EnvProvisionSocket = "MVNPACK_PROVISION_SOCKET"
)

// Config is the full configuration.
type Config struct {
	Resolver     Resolver               `toml:"resolver"`
	Installer    Installer              `toml:"installer"`
	Repositories []Repository           `toml:"repositories"`
	Rules        []*rules.PackagingRule `toml:"rules"`

	path string
}

// Resolver configures metadata loading and artifact resolution.
type Resolver struct {
	MetadataRepositories []string `toml:"metadata_repositories"`
	IgnoreDuplicates     bool     `toml:"ignore_duplicates"`
	CacheDir             string   `toml:"cache_dir"`
	ProvisionSocket      string   `toml:"provision_socket"`
}

// Installer configures the installation reactor.
type Installer struct {
	MetadataDir    string   `toml:"metadata_dir"`
	PluginDir      string   `toml:"plugin_dir"`
	HostNamespaces []string `toml:"host_namespaces"`
}

// Repository declares an installation repository.
type Repository struct {
	ID          string                  `toml:"id"`
	Type        string                  `toml:"type"`
	Root        string                  `toml:"root"`
	Namespace   string                  `toml:"namespace"`
	Stereotypes []repository.Stereotype `toml:"stereotypes"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Resolver: Resolver{
			MetadataRepositories: []string{"/usr/share/maven-metadata"},
		},
		Installer: Installer{
			MetadataDir:    "usr/share/maven-metadata",
			HostNamespaces: []string{"mvnpack.builtin"},
		},
	}
}

// Path returns the file the configuration was read from, or "".
func (c *Config) Path() string { return c.path }

// Find returns the configuration file to use. An explicit path always wins,
// even if it does not exist. It returns "" when no file is found.
func Find(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv(EnvConfig); p != "" {
		return p
	}

	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	p := filepath.Join(dir, "mvnpack", "config.toml")
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

// Load reads the configuration found by [Find] and applies environment
// overrides.
func Load(explicit string) (*Config, error) {
	path := Find(explicit)

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config")
		}
		if cfg, err = Parse(data); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
		}
		cfg.path = path
	}

	if v := os.Getenv(EnvCacheDir); v != "" {
		cfg.Resolver.CacheDir = v
	}
	if v := os.Getenv(EnvProvisionSocket); v != "" {
		cfg.Resolver.ProvisionSocket = v
	}
	return cfg, nil
}

// Parse decodes and validates TOML data on top of [Default]. Unknown keys
// are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown configuration keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks rule globs, repositories and the metadata directory.
func (c *Config) Validate() error {
	if err := rules.CompileAll(c.Rules); err != nil {
		return err
	}
	if _, err := c.RepositorySet(); err != nil {
		return err
	}
	if c.Installer.MetadataDir != "" {
		if err := errors.ValidateRelativePath(c.Installer.MetadataDir); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "installer.metadata_dir")
		}
	}
	return nil
}

// RepositorySet builds the installation repositories. Without any
// configured repository the set holds [repository.Default].
func (c *Config) RepositorySet() (*repository.Set, error) {
	if len(c.Repositories) == 0 {
		return repository.NewSet(repository.Default()), nil
	}

	repos := make([]*repository.Repository, 0, len(c.Repositories))
	for _, rc := range c.Repositories {
		if rc.ID == "" {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "repository without id")
		}
		r, err := repository.New(rc.ID, repository.Layout(rc.Type), rc.Root, rc.Namespace)
		if err != nil {
			return nil, err
		}
		r.Stereotypes = rc.Stereotypes
		repos = append(repos, r)
	}
	return repository.NewSet(repos...), nil
}
