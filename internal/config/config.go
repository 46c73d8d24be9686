// Package config loads the tool configuration: a YAML file with environment
// expansion, .env convenience loading, defaults and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	// Root is the documentation tree to scan.
	Root string `yaml:"root"`
	// Include restricts scans to matching root-relative paths when non-empty.
	Include []string `yaml:"include,omitempty"`
	// Exclude lists root-relative paths skipped by scans.
	Exclude []string `yaml:"exclude,omitempty"`
	// HTML also verifies references inside HTML files.
	HTML bool `yaml:"html,omitempty"`

	Resolve    ResolveConfig `yaml:"resolve,omitempty"`
	Store      StoreConfig   `yaml:"store,omitempty"`
	Watch      WatchConfig   `yaml:"watch,omitempty"`
	Metrics    MetricsConfig `yaml:"metrics,omitempty"`
	NATS       *NATSConfig   `yaml:"nats,omitempty"`
	Repository *Repository   `yaml:"repository,omitempty"`
	Logging    LoggingConfig `yaml:"logging,omitempty"`
}

// ResolveConfig tunes directive expansion.
type ResolveConfig struct {
	// MaxDepth caps include nesting; 0 means the resolver default.
	MaxDepth int `yaml:"max_depth,omitempty"`
	// Missing is the policy for unreadable targets: error, keep or comment.
	Missing string `yaml:"missing,omitempty"`
	// StampFingerprint writes the content fingerprint of expanded output
	// into its frontmatter.
	StampFingerprint bool `yaml:"stamp_fingerprint,omitempty"`
	// OutputDir receives expanded documents, relative to the working
	// directory.
	OutputDir string `yaml:"output_dir,omitempty"`
}

// StoreConfig locates the scan history database.
type StoreConfig struct {
	// Path of the SQLite file; ":memory:" keeps history for the process
	// lifetime only.
	Path string `yaml:"path,omitempty"`
}

// WatchConfig tunes the daemon.
type WatchConfig struct {
	// Debounce coalesces filesystem events before rescanning, as a Go
	// duration string.
	Debounce string `yaml:"debounce,omitempty"`
	// Rescan is the periodic full rescan interval, as a Go duration string.
	// "0" disables the schedule.
	Rescan string `yaml:"rescan,omitempty"`
	// Addr is the admin listen address serving /healthz and /metrics.
	Addr string `yaml:"addr,omitempty"`
}

// MetricsConfig switches Prometheus metrics on the admin endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled,omitempty"`
}

// NATSConfig connects scan results to a JetStream subject. Absent means no
// publishing.
type NATSConfig struct {
	URL string `yaml:"url"`
	// Subject receives one message per finished scan.
	Subject string `yaml:"subject,omitempty"`
	// Stream is created when missing, bound otherwise.
	Stream string `yaml:"stream,omitempty"`
}

// Repository points the scanner at a git repository instead of a local tree.
type Repository struct {
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	// Token authenticates HTTPS remotes; use ${VAR} to pull it from the
	// environment.
	Token string `yaml:"token,omitempty"`
	// Depth shallows the clone to that many commits; 0 clones fully.
	Depth int `yaml:"depth,omitempty"`
	// Dir is the checkout location.
	Dir string `yaml:"dir,omitempty"`
	// Path is the documentation root inside the checkout.
	Path string `yaml:"path,omitempty"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty"`
	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Root: ".",
		Resolve: ResolveConfig{
			Missing:   "error",
			OutputDir: "expanded",
		},
		Store: StoreConfig{Path: ".mdincl/scans.db"},
		Watch: WatchConfig{
			Debounce: "500ms",
			Rescan:   "15m",
			Addr:     ":9180",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path, after loading .env files into
// the process environment (existing variables win) and expanding ${VAR}
// references in the file itself.
func Load(path string) (*Config, error) {
	for _, env := range []string{".env", ".env.local"} {
		// Missing files are fine; godotenv never overrides existing vars.
		_ = godotenv.Load(env)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	expanded := os.ExpandEnv(string(raw))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Config{
		Root:    "docs",
		Exclude: []string{"docs/drafts"},
		Resolve: ResolveConfig{
			MaxDepth:         10,
			Missing:          "error",
			StampFingerprint: true,
			OutputDir:        "expanded",
		},
		Store: StoreConfig{Path: ".mdincl/scans.db"},
		Watch: WatchConfig{
			Debounce: "500ms",
			Rescan:   "15m",
			Addr:     ":9180",
		},
		Metrics: MetricsConfig{Enabled: true},
		Repository: &Repository{
			URL:    "https://github.com/example/docs.git",
			Branch: "main",
			Token:  "${GIT_TOKEN}",
			Dir:    ".mdincl/checkout",
			Path:   "docs",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks enumerations and duration strings.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	switch c.Resolve.Missing {
	case "", "error", "keep", "comment":
	default:
		return fmt.Errorf("resolve.missing: unknown policy %q", c.Resolve.Missing)
	}
	if c.Resolve.MaxDepth < 0 {
		return fmt.Errorf("resolve.max_depth must not be negative")
	}
	if _, err := c.Debounce(); err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}
	if _, err := c.RescanInterval(); err != nil {
		return fmt.Errorf("watch.rescan: %w", err)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: unknown format %q", c.Logging.Format)
	}
	if c.NATS != nil && c.NATS.URL == "" {
		return fmt.Errorf("nats.url must not be empty when nats is configured")
	}
	if c.Repository != nil {
		if c.Repository.URL == "" {
			return fmt.Errorf("repository.url must not be empty when repository is configured")
		}
		if c.Repository.Depth < 0 {
			return fmt.Errorf("repository.depth must not be negative")
		}
	}
	return nil
}

// Debounce parses the watch debounce window.
func (c *Config) Debounce() (time.Duration, error) {
	return parseDuration(c.Watch.Debounce, 500*time.Millisecond)
}

// RescanInterval parses the periodic rescan interval; zero disables it.
func (c *Config) RescanInterval() (time.Duration, error) {
	return parseDuration(c.Watch.Rescan, 15*time.Minute)
}

func parseDuration(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
