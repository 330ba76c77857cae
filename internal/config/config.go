package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the optional workspace configuration file looked up in the root.
const FileName = ".metadocs.yaml"

const (
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8443
	DefaultSiteDir         = "site"
	DefaultDocsDir         = "docs"
	DefaultRefreshInterval = 0
)

// DefaultWatchPatterns are the file globs whose changes trigger rebuilds.
var DefaultWatchPatterns = []string{"*.rst", "*.md", "*.yml", "*.yaml"}

// Config represents the workspace configuration.
type Config struct {
	// Root is the absolute workspace directory. It is never read from file.
	Root string `yaml:"-"`

	Server   ServerConfig `yaml:"server"`
	Tools    ToolsConfig  `yaml:"tools"`
	Watch    WatchConfig  `yaml:"watch"`
	Offline  bool         `yaml:"offline"`
	LogLevel LogLevel     `yaml:"log_level,omitempty"`

	// Site is read from mkdocs.yml.
	Site SiteConfig `yaml:"-"`
}

// ServerConfig controls the local preview server.
type ServerConfig struct {
	Host            string     `yaml:"host,omitempty"`
	Port            int        `yaml:"port,omitempty"`
	PortPolicy      PortPolicy `yaml:"port_policy,omitempty"` // prompt|increment|fail
	Metrics         bool       `yaml:"metrics,omitempty"`
	RefreshInterval Duration   `yaml:"refresh_interval,omitempty"`
}

// ToolsConfig names the external executables.
type ToolsConfig struct {
	MkDocs           string `yaml:"mkdocs,omitempty"`
	Make             string `yaml:"make,omitempty"`
	SphinxQuickstart string `yaml:"sphinx_quickstart,omitempty"`
	SphinxApidoc     string `yaml:"sphinx_apidoc,omitempty"`
}

// WatchConfig holds watcher filters.
type WatchConfig struct {
	Patterns []string `yaml:"patterns,omitempty"`
	Ignore   []string `yaml:"ignore,omitempty"` // extra directory names to skip
}

// Duration is a time.Duration that unmarshals from strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	if raw == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a configuration rooted at root with every default applied.
func Default(root string) *Config {
	cfg := &Config{Root: root}
	cfg.applyDefaults()
	return cfg
}

// Load builds the configuration for the workspace at root. Layers, last wins:
// defaults, .metadocs.yaml, .env (never overriding the process environment),
// METADOCS_* variables. mkdocs.yml is read afterwards for the site layout.
// None of the files are required.
func Load(root string) (*Config, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root: %w", err)
	}

	cfg := &Config{Root: abs}

	path := filepath.Join(abs, FileName)
	if data, readErr := os.ReadFile(path); readErr == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s: %w", FileName, err)
		}
		cfg.Root = abs
	} else if !os.IsNotExist(readErr) {
		return nil, fmt.Errorf("failed to read %s: %w", FileName, readErr)
	}

	if err := loadEnvFile(filepath.Join(abs, ".env")); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	site, err := ReadSiteConfig(cfg.SiteConfigPath())
	switch {
	case err == nil:
		cfg.Site = site
	case os.IsNotExist(err):
	default:
		return nil, err
	}
	cfg.Site.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.PortPolicy == "" {
		c.Server.PortPolicy = PortPolicyPrompt
	}
	if c.Tools.MkDocs == "" {
		c.Tools.MkDocs = "mkdocs"
	}
	if c.Tools.Make == "" {
		c.Tools.Make = "make"
	}
	if c.Tools.SphinxQuickstart == "" {
		c.Tools.SphinxQuickstart = "sphinx-quickstart"
	}
	if c.Tools.SphinxApidoc == "" {
		c.Tools.SphinxApidoc = "sphinx-apidoc"
	}
	if len(c.Watch.Patterns) == 0 {
		c.Watch.Patterns = append([]string(nil), DefaultWatchPatterns...)
	}
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	c.Site.applyDefaults()
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if NormalizePortPolicy(string(c.Server.PortPolicy)) == "" {
		return fmt.Errorf("server.port_policy must be one of prompt, increment, fail; got %q", c.Server.PortPolicy)
	}
	if c.Server.RefreshInterval < 0 {
		return fmt.Errorf("server.refresh_interval must not be negative")
	}
	for _, p := range c.Watch.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("invalid watch pattern %q: %w", p, err)
		}
	}
	return nil
}

// SiteConfigPath is the MkDocs configuration file of the workspace.
func (c *Config) SiteConfigPath() string {
	return filepath.Join(c.Root, SiteConfigFile)
}

// HomeIndexPath is the Markdown document listing the sub-projects.
func (c *Config) HomeIndexPath() string {
	return filepath.Join(c.docsDir(), "index.md")
}

// SiteDirPath is the directory MkDocs writes the home site into.
func (c *Config) SiteDirPath() string {
	if filepath.IsAbs(c.Site.SiteDir) {
		return c.Site.SiteDir
	}
	return filepath.Join(c.Root, c.Site.SiteDir)
}

func (c *Config) docsDir() string {
	if filepath.IsAbs(c.Site.DocsDir) {
		return c.Site.DocsDir
	}
	return filepath.Join(c.Root, c.Site.DocsDir)
}

// Addr is the host:port the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
