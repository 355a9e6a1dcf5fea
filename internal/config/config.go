// Package config provides configuration management for xtreamctl using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultScheme          = "http"
	defaultRequestTimeout  = 30 * time.Second
	defaultProbeTimeout    = 30 * time.Second
	defaultConcurrency     = 1
	defaultNameWidth       = 60
	defaultCategoryWidth   = 40
	defaultArchiveRetries  = 3
	defaultArchiveDelay    = 30 * time.Second
	defaultArchiveMaxDelay = 60 * time.Second
)

// DefaultUserAgent is the browser User-Agent sent to the provider.
// Xtream panels are known to behave inconsistently without a realistic one.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36"

// Config holds all configuration for the application.
type Config struct {
	Provider ProviderConfig `mapstructure:"provider" yaml:"provider"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Archive  ArchiveConfig  `mapstructure:"archive" yaml:"archive"`
	FFprobe  FFprobeConfig  `mapstructure:"ffprobe" yaml:"ffprobe"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// ProviderConfig identifies the Xtream server and credentials.
type ProviderConfig struct {
	Server    string        `mapstructure:"server" yaml:"server"`
	Username  string        `mapstructure:"username" yaml:"username"`
	Password  string        `mapstructure:"password" yaml:"password"`
	Scheme    string        `mapstructure:"scheme" yaml:"scheme"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig holds catalog cache configuration.
type CacheConfig struct {
	Dir      string `mapstructure:"dir" yaml:"dir"`
	Disabled bool   `mapstructure:"disabled" yaml:"disabled"`
}

// ReportConfig holds report pipeline configuration.
type ReportConfig struct {
	Category string `mapstructure:"category" yaml:"category"`
	Channel  string `mapstructure:"channel" yaml:"channel"`
	CheckEPG bool   `mapstructure:"check_epg" yaml:"check_epg"`
	Probe    bool   `mapstructure:"probe" yaml:"probe"`
	CSVPath  string `mapstructure:"csv_path" yaml:"csv_path"`

	// Concurrency bounds the per-row enrichment worker pool.
	// 1 reproduces strictly sequential row processing.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// RequestInterval paces enrichment requests against the provider.
	// Zero disables pacing.
	RequestInterval time.Duration `mapstructure:"request_interval" yaml:"request_interval"`

	// NameWidth and CategoryWidth are display truncation limits for
	// rendered and exported fields. They never apply to identity fields.
	NameWidth     int `mapstructure:"name_width" yaml:"name_width"`
	CategoryWidth int `mapstructure:"category_width" yaml:"category_width"`
}

// ArchiveConfig holds snapshot archival configuration.
type ArchiveConfig struct {
	SaveDir    string        `mapstructure:"save_dir" yaml:"save_dir"`
	Retries    int           `mapstructure:"retries" yaml:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	Prune      int           `mapstructure:"prune" yaml:"prune"`
	SaveRaw    bool          `mapstructure:"save_raw" yaml:"save_raw"`
	Format     bool          `mapstructure:"format" yaml:"format"`
}

// FFprobeConfig holds ffprobe binary configuration.
type FFprobeConfig struct {
	Path    string        `mapstructure:"path" yaml:"path"` // empty = auto-detect
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source" yaml:"add_source"`
	TimeFormat string `mapstructure:"time_format" yaml:"time_format"`
}

// SetDefaults registers default values on the given viper instance.
// Call this before reading config files so unset keys resolve to defaults.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider.scheme", defaultScheme)
	v.SetDefault("provider.user_agent", DefaultUserAgent)
	v.SetDefault("provider.timeout", defaultRequestTimeout)

	v.SetDefault("cache.dir", ".")
	v.SetDefault("cache.disabled", false)

	v.SetDefault("report.concurrency", defaultConcurrency)
	v.SetDefault("report.request_interval", time.Duration(0))
	v.SetDefault("report.name_width", defaultNameWidth)
	v.SetDefault("report.category_width", defaultCategoryWidth)

	v.SetDefault("archive.retries", defaultArchiveRetries)
	v.SetDefault("archive.retry_delay", defaultArchiveDelay)
	v.SetDefault("archive.prune", 0)
	v.SetDefault("archive.save_raw", false)
	v.SetDefault("archive.format", true)

	v.SetDefault("ffprobe.timeout", defaultProbeTimeout)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", "")
}

// Load unmarshals the viper state into a Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// Default returns a Config populated with default values only.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		// Defaults always unmarshal; a failure here is a programming error.
		panic(err)
	}
	return cfg
}

// Validate checks settings shared by every command.
func (c *Config) Validate() error {
	if c.Provider.Server == "" {
		return errors.New("provider server is required")
	}
	if c.Provider.Username == "" {
		return errors.New("provider username is required")
	}
	if c.Provider.Password == "" {
		return errors.New("provider password is required")
	}
	switch strings.ToLower(c.Provider.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("provider scheme must be http or https, got %q", c.Provider.Scheme)
	}
	if c.Report.Concurrency < 1 {
		return fmt.Errorf("report concurrency must be >= 1, got %d", c.Report.Concurrency)
	}
	if c.Report.NameWidth < 1 || c.Report.CategoryWidth < 1 {
		return errors.New("report name_width and category_width must be positive")
	}
	return nil
}

// ValidateArchive checks the archive-mode settings on top of Validate.
func (c *Config) ValidateArchive() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Archive.SaveDir == "" {
		return errors.New("archive save_dir is required")
	}
	if c.Archive.Retries < 0 {
		return fmt.Errorf("archive retries must be >= 0, got %d", c.Archive.Retries)
	}
	return nil
}

// BaseURL returns the provider base URL, e.g. "http://host:port".
func (c *ProviderConfig) BaseURL() string {
	server := strings.TrimSuffix(c.Server, "/")
	// Accept servers given with an explicit scheme prefix.
	if strings.HasPrefix(server, "http://") || strings.HasPrefix(server, "https://") {
		return server
	}
	scheme := c.Scheme
	if scheme == "" {
		scheme = defaultScheme
	}
	return scheme + "://" + server
}

// Host returns the server without any scheme prefix, suitable for cache
// keys and snapshot directory names.
func (c *ProviderConfig) Host() string {
	server := strings.TrimSuffix(c.Server, "/")
	if i := strings.Index(server, "://"); i >= 0 {
		server = server[i+3:]
	}
	return server
}
