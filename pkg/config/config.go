// Package config loads bio2brat run settings.
//
// Settings are resolved in order, later sources winning:
//   - built-in defaults
//   - the YAML file given by --config (or BIO2BRAT_CONFIG)
//   - a .env file in the working directory, if present
//   - BIO2BRAT_* environment variables
//
// Command-line flags that were explicitly set are applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "BIO2BRAT_"

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds the settings for a conversion run.
type Config struct {
	// Input is the directory holding token files.
	Input string `yaml:"input"`

	// Output is the directory receiving .txt/.ann pairs.
	Output string `yaml:"output"`

	// TextFiles is the directory holding the original document texts.
	TextFiles string `yaml:"text_files"`

	TokenSuffix string `yaml:"token_suffix"`
	TextSuffix  string `yaml:"text_suffix"`
	AnnSuffix   string `yaml:"ann_suffix"`

	// Workers bounds the number of documents converted concurrently.
	Workers int `yaml:"workers"`

	// FailFast aborts the run on the first document failure.
	FailFast bool `yaml:"fail_fast"`

	// Strict turns orphaned and mismatched continuation tags into span starts.
	Strict bool `yaml:"strict"`

	// Incremental skips documents whose inputs are unchanged since the last run.
	// Requires Datastore.
	Incremental bool `yaml:"incremental"`

	IncludeHidden bool `yaml:"include_hidden"`

	// Datastore is a SQLite path (or ":memory:") recording conversion results.
	Datastore string `yaml:"datastore"`

	// MetricsFile receives Prometheus metrics in textfile format after a run.
	MetricsFile string `yaml:"metrics_file"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		TokenSuffix: ".bio",
		TextSuffix:  ".txt",
		AnnSuffix:   ".ann",
		Workers:     4,
		LogLevel:    "info",
		LogFormat:   FormatText,
	}
}

// Load resolves the configuration. An empty path falls back to
// BIO2BRAT_CONFIG; if neither is set no file is read.
func Load(path string) (*Config, error) {
	cfg := Default()

	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvPrefix + "CONFIG"))
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile merges a YAML file into the config. Unknown keys are errors.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides fields from BIO2BRAT_* variables. Empty values are ignored.
func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"INPUT":        &c.Input,
		"OUTPUT":       &c.Output,
		"TEXT_FILES":   &c.TextFiles,
		"TOKEN_SUFFIX": &c.TokenSuffix,
		"TEXT_SUFFIX":  &c.TextSuffix,
		"ANN_SUFFIX":   &c.AnnSuffix,
		"DATASTORE":    &c.Datastore,
		"METRICS_FILE": &c.MetricsFile,
		"LOG_LEVEL":    &c.LogLevel,
		"LOG_FORMAT":   &c.LogFormat,
	}
	for name, dst := range strs {
		if v := lookupEnv(name); v != "" {
			*dst = v
		}
	}

	bools := map[string]*bool{
		"FAIL_FAST":      &c.FailFast,
		"STRICT":         &c.Strict,
		"INCREMENTAL":    &c.Incremental,
		"INCLUDE_HIDDEN": &c.IncludeHidden,
	}
	for name, dst := range bools {
		v := lookupEnv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s%s: invalid boolean %q", EnvPrefix, name, v)
		}
		*dst = b
	}

	if v := lookupEnv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sWORKERS: invalid integer %q", EnvPrefix, v)
		}
		c.Workers = n
	}
	return nil
}

func lookupEnv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Input == "" {
		errs = append(errs, fmt.Errorf("input is required"))
	}
	if c.Output == "" {
		errs = append(errs, fmt.Errorf("output is required"))
	}
	if c.TextFiles == "" {
		errs = append(errs, fmt.Errorf("text_files is required"))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}

	suffixes := map[string]string{
		"token_suffix": c.TokenSuffix,
		"text_suffix":  c.TextSuffix,
		"ann_suffix":   c.AnnSuffix,
	}
	for _, key := range []string{"token_suffix", "text_suffix", "ann_suffix"} {
		if suffixes[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}
	if c.TokenSuffix != "" && (c.TokenSuffix == c.TextSuffix || c.TokenSuffix == c.AnnSuffix) ||
		c.TextSuffix != "" && c.TextSuffix == c.AnnSuffix {
		errs = append(errs, fmt.Errorf("token_suffix, text_suffix and ann_suffix must differ"))
	}

	if c.Incremental && c.Datastore == "" {
		errs = append(errs, fmt.Errorf("incremental requires datastore"))
	}

	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != FormatText && c.LogFormat != FormatJSON {
		errs = append(errs, fmt.Errorf("log_format must be one of: %v", []string{FormatText, FormatJSON}))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// ParseLevel maps a log level name to its slog level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("log_level must be one of: [debug info warn error], got %q", name)
}
