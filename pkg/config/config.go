// Package config loads agent settings from defaults, a YAML file, the
// environment and a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/zarah/pkg/redact"
	"github.com/ormasoftchile/zarah/pkg/report"
)

// DefaultFile is read when no explicit config path is given and it exists.
const DefaultFile = "zarah.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ZARAH_"

// Server describes how to start the browser automation server.
type Server struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args,omitempty"`
	Env     []string `yaml:"env,omitempty"`
}

// Config holds the agent settings. Zero values are replaced by defaults.
type Config struct {
	ScreenshotDir   string        `yaml:"screenshot_dir"`
	ReportDir       string        `yaml:"report_dir"`
	DefaultTimeout  int           `yaml:"default_timeout"` // ms
	RetryAttempts   int           `yaml:"retry_attempts"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	Verbose         bool          `yaml:"verbose"`
	ParallelWorkers int           `yaml:"parallel_workers"`
	ReportFormat    string        `yaml:"report_format"`
	MetricsFile     string        `yaml:"metrics_file,omitempty"`
	Upload          string        `yaml:"upload,omitempty"`
	Server          Server        `yaml:"server"`

	// Redact rules and SecretEnv values are masked in reports.
	Redact    []redact.Rule `yaml:"redact,omitempty"`
	SecretEnv []string      `yaml:"secret_env,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ScreenshotDir:   "qa_screenshots",
		ReportDir:       "qa_reports",
		DefaultTimeout:  30000,
		RetryAttempts:   3,
		RetryDelay:      time.Second,
		Verbose:         true,
		ParallelWorkers: 4,
		ReportFormat:    string(report.FormatAll),
		Server: Server{
			Command: "zarah-browser",
			Env:     []string{"DISPLAY=:0"},
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML file at
// path (or DefaultFile when path is empty and it exists), then a .env file,
// then ZARAH_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is
// not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings from ZARAH_* variables found through lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(EnvPrefix + key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}

	str("SCREENSHOT_DIR", &c.ScreenshotDir)
	str("REPORT_DIR", &c.ReportDir)
	str("REPORT_FORMAT", &c.ReportFormat)
	str("METRICS_FILE", &c.MetricsFile)
	str("UPLOAD", &c.Upload)
	str("SERVER_COMMAND", &c.Server.Command)
	num("DEFAULT_TIMEOUT", &c.DefaultTimeout)
	num("RETRY_ATTEMPTS", &c.RetryAttempts)
	num("PARALLEL_WORKERS", &c.ParallelWorkers)

	if v, ok := lookup(EnvPrefix + "SERVER_ARGS"); ok && v != "" {
		c.Server.Args = strings.Fields(v)
	}
	if v, ok := lookup(EnvPrefix + "RETRY_DELAY"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRETRY_DELAY: %w", EnvPrefix, err))
		} else {
			c.RetryDelay = d
		}
	}
	if v, ok := lookup(EnvPrefix + "VERBOSE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sVERBOSE: %w", EnvPrefix, err))
		} else {
			c.Verbose = b
		}
	}
	return errors.Join(errs...)
}

// Validate rejects settings the agent cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.DefaultTimeout < 0 {
		errs = append(errs, fmt.Errorf("default_timeout must not be negative"))
	}
	if c.RetryAttempts < 0 {
		errs = append(errs, fmt.Errorf("retry_attempts must not be negative"))
	}
	if c.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("retry_delay must not be negative"))
	}
	if c.ParallelWorkers < 0 {
		errs = append(errs, fmt.Errorf("parallel_workers must not be negative"))
	}
	if _, err := report.ParseFormat(c.ReportFormat); err != nil {
		errs = append(errs, err)
	}
	if c.Server.Command == "" {
		errs = append(errs, fmt.Errorf("server.command is required"))
	}
	if c.Upload != "" {
		if _, err := report.ParseDestination(c.Upload); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := c.Redactor(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Redactor compiles the redaction settings against the process environment.
func (c *Config) Redactor() (*redact.Redactor, error) {
	return redact.New(c.Redact, c.SecretEnv, os.Getenv)
}

// Timeout is DefaultTimeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.DefaultTimeout) * time.Millisecond
}

// EnsureDirs creates the screenshot and report directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.ScreenshotDir, c.ReportDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
