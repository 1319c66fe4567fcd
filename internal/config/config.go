// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryForge Contributors

// Package config loads StoryForge configuration from a YAML file and
// command-line flags. Flags take precedence over the file, which takes
// precedence over built-in defaults.
package config

import (
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Default values applied before any file or flag is consulted.
const (
	DefaultBackendURL      = "http://localhost:8080"
	DefaultMetricsAddr     = ""
	DefaultLogFormat       = "json"
	DefaultManifestTimeout = 5 * time.Second
	DefaultActionTimeout   = 20 * time.Second
)

// Config holds the runtime configuration for the StoryForge CLI.
type Config struct {
	// BackendURL is the base URL of the plugin registry backend.
	BackendURL string `koanf:"backend_url"`

	// ProjectFile is the path of the active project workspace file.
	ProjectFile string `koanf:"project_file"`

	// MetricsAddr is the listen address for the metrics/health HTTP
	// server. Empty disables the server.
	MetricsAddr string `koanf:"metrics_addr"`

	// LogFormat selects the slog handler: "json" or "text".
	LogFormat string `koanf:"log_format"`

	// ManifestTimeout bounds plugin manifest probes.
	ManifestTimeout time.Duration `koanf:"manifest_timeout"`

	// ActionTimeout bounds plugin action invocations. Zero disables
	// the deadline.
	ActionTimeout time.Duration `koanf:"action_timeout"`
}

// Default returns the built-in configuration defaults.
func Default() Config {
	return Config{
		BackendURL:      DefaultBackendURL,
		MetricsAddr:     DefaultMetricsAddr,
		LogFormat:       DefaultLogFormat,
		ManifestTimeout: DefaultManifestTimeout,
		ActionTimeout:   DefaultActionTimeout,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.BackendURL == "" {
		return oops.Code("config_invalid").Errorf("backend_url is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("config_invalid").
			With("log_format", c.LogFormat).
			Errorf("log_format must be 'json' or 'text'")
	}
	if c.ManifestTimeout < 0 {
		return oops.Code("config_invalid").Errorf("manifest_timeout must not be negative")
	}
	if c.ActionTimeout < 0 {
		return oops.Code("config_invalid").Errorf("action_timeout must not be negative")
	}
	return nil
}

// RegisterFlags declares the configuration flags on the given flag set.
// Flag names use dashes; they map onto the underscore config keys when
// loaded.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("backend-url", DefaultBackendURL, "plugin registry backend base URL")
	fs.String("project-file", "", "project workspace file path")
	fs.String("metrics-addr", DefaultMetricsAddr, "metrics/health HTTP address (empty = disabled)")
	fs.String("log-format", DefaultLogFormat, "log format (json or text)")
	fs.Duration("manifest-timeout", DefaultManifestTimeout, "plugin manifest probe timeout")
	fs.Duration("action-timeout", DefaultActionTimeout, "plugin action timeout (0 = no deadline)")
}

// Load builds a Config from defaults, an optional YAML file, and an
// optional flag set, in that order of precedence (lowest first).
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code("config_read_failed").
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}

	if fs != nil {
		// Only flags the user actually changed override file values.
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code("config_flags_failed").Wrapf(err, "loading flags")
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code("config_decode_failed").Wrapf(err, "decoding config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
