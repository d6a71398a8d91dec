package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// NOTE: YAML is the source of truth. Deployment secrets (the content store
// token, site id) are usually injected through the environment instead;
// ApplyEnv layers them on top after Load.

// CaptureConfig controls the optional screenshot of the public programme
// page taken after each refresh.
type CaptureConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	URL     string `yaml:"url" json:"url" validate:"required_if=Enabled true"`
	Output  string `yaml:"output" json:"output" validate:"required_if=Enabled true"`
	Width   int    `yaml:"width" json:"width" validate:"gte=0"`
	Height  int    `yaml:"height" json:"height" validate:"gte=0"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the admin API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// SiteURL is the public website the API serves.
	SiteURL string `yaml:"site_url" json:"site_url" validate:"omitempty,url"`

	// DirectusURL is the base URL of the headless content store.
	DirectusURL string `yaml:"directus_url" json:"directus_url" validate:"required,url"`

	// DirectusToken is the static server token used for content reads.
	DirectusToken string `yaml:"directus_token" json:"-"`

	// SiteID scopes every content query to one site/congress.
	SiteID string `yaml:"site_id" json:"site_id" validate:"required"`

	// Timezone is the IANA zone the congress times are authored in
	// (e.g. "Asia/Hong_Kong"). Empty means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for rebuilding the schedule snapshot. Empty disables the job.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CacheDir holds the conditional-GET cache of content responses.
	// Empty disables the cache; every read then goes to the store.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"omitempty,oneof=debug info warn warning error"`

	// Locales are the languages the API localizes into; requests are
	// negotiated against them. DefaultLocale is the translation fallback.
	DefaultLocale string   `yaml:"default_locale" json:"default_locale" validate:"required"`
	Locales       []string `yaml:"locales" json:"locales" validate:"dive,required"`

	// MaxEventDepth bounds nested events kept per session.
	MaxEventDepth int `yaml:"max_event_depth" json:"max_event_depth" validate:"gte=1,lte=16"`

	// Workers bounds how many days are laid out in parallel.
	Workers int `yaml:"workers" json:"workers" validate:"gte=1,lte=64"`

	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, protects the admin endpoints.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"-"`
}

// Environment variables that override file values.
const (
	EnvDirectusURL   = "DIRECTUS_URL"
	EnvDirectusToken = "DIRECTUS_SERVER_TOKEN"
	EnvSiteID        = "SITE_ID"
	EnvSiteURL       = "NUXT_PUBLIC_SITE_URL"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        "127.0.0.1:8080",
		DirectusURL:   "http://localhost:8055",
		SiteID:        "1",
		Timezone:      "Asia/Hong_Kong",
		RefreshCron:   "*/15 * * * *",
		CacheDir:      "/var/lib/congressapp/cache",
		LogLevel:      "info",
		DefaultLocale: "en",
		Locales:       []string{"en", "zh_tw"},
		MaxEventDepth: 3,
		Workers:       4,
		Capture: CaptureConfig{
			Width:  1280,
			Height: 1800,
		},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	c.DirectusURL = strings.TrimRight(c.DirectusURL, "/")
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = def.DefaultLocale
	}
	if len(c.Locales) == 0 {
		c.Locales = []string{c.DefaultLocale}
	}
	if c.MaxEventDepth <= 0 {
		c.MaxEventDepth = def.MaxEventDepth
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = def.Capture.Width
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = def.Capture.Height
	}
}

// ApplyEnv loads envFile (if it exists) into the process environment and
// then overrides the content store settings from it. A missing env file is
// not an error.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvDirectusURL); v != "" {
		c.DirectusURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv(EnvDirectusToken); v != "" {
		c.DirectusToken = v
	}
	if v := os.Getenv(EnvSiteID); v != "" {
		c.SiteID = v
	}
	if v := os.Getenv(EnvSiteURL); v != "" {
		c.SiteURL = v
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and reports all violations at once.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: invalid: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: invalid: %w", err)
	}
	return nil
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".congressapp-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
