// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the complete warden configuration.
type Config struct {
	// Environment selects environment-dependent defaults. In
	// production an "auto" log format means JSON.
	Environment Environment `yaml:"environment" validate:"oneof=development production"`

	Matrix  MatrixConfig  `yaml:"matrix"`
	Admin   AdminConfig   `yaml:"admin"`
	Sync    SyncConfig    `yaml:"sync"`
	Store   StoreConfig   `yaml:"store"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
}

// MatrixConfig configures the homeserver connection.
type MatrixConfig struct {
	// CredentialFile is the KEY=VALUE file holding the homeserver URL,
	// user ID and access token.
	CredentialFile string `yaml:"credential_file" validate:"required"`

	// RequestsPerSecond throttles all homeserver requests. Zero
	// disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gte=0"`
	Burst             int     `yaml:"burst" validate:"gte=1"`

	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`
}

// AdminConfig configures who may run commands and how.
type AdminConfig struct {
	// Prefix marks a message as a command, e.g. "!admin kick @u:x".
	Prefix string `yaml:"prefix" validate:"required"`

	// Admins may always run commands.
	Admins []string `yaml:"admins" validate:"dive,startswith=@"`

	// MinPowerLevel lets anyone at or above this level in the command's
	// room run commands. Zero disables the power level path.
	MinPowerLevel int `yaml:"min_power_level" validate:"gte=0,lte=100"`

	// AutoJoinFrom lists inviters whose invites are accepted. Empty
	// means the admin list.
	AutoJoinFrom []string `yaml:"auto_join_from" validate:"dive,startswith=@"`

	CommandTimeout time.Duration `yaml:"command_timeout" validate:"gt=0"`

	// PurgeRate bounds redactions per second issued by the purge
	// command.
	PurgeRate float64 `yaml:"purge_rate" validate:"gt=0"`

	// AliasServer completes bare aliases ("ops") in commands that have
	// no room context, such as "warden exec". Empty rejects them.
	AliasServer string `yaml:"alias_server" validate:"omitempty,hostname|hostname_port"`
}

// SyncConfig configures the /sync loop.
type SyncConfig struct {
	// Timeout is the long-poll timeout sent to the homeserver.
	Timeout time.Duration `yaml:"timeout" validate:"gte=0"`

	// MaxBackoff caps the retry delay after failed syncs.
	MaxBackoff time.Duration `yaml:"max_backoff" validate:"gte=1s"`
}

// StoreConfig selects the member cache backend.
type StoreConfig struct {
	Backend   string        `yaml:"backend" validate:"oneof=memory valkey"`
	Addr      string        `yaml:"addr" validate:"required_if=Backend valkey"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db" validate:"gte=0"`
	TLS       bool          `yaml:"tls"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl" validate:"gte=0"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Listen is the address of the metrics server. Empty disables it.
	Listen string `yaml:"listen" validate:"omitempty,hostname_port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`

	// Format is "text", "json", or "auto" (text on a terminal).
	Format string `yaml:"format" validate:"oneof=auto text json"`

	// File, when set, receives a copy of every log line and is rotated
	// by size.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"gte=0"`
}

// Default returns the configuration used for every field the file
// leaves unset.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Matrix: MatrixConfig{
			CredentialFile:    filepath.Join(homeDir, ".config", "warden", "credentials"),
			RequestsPerSecond: 10,
			Burst:             20,
			RequestTimeout:    time.Minute,
		},
		Admin: AdminConfig{
			Prefix:         "!admin",
			MinPowerLevel:  100,
			CommandTimeout: 2 * time.Minute,
			PurgeRate:      2,
		},
		Sync: SyncConfig{
			Timeout:    30 * time.Second,
			MaxBackoff: 5 * time.Minute,
		},
		Store: StoreConfig{
			Backend:   "memory",
			KeyPrefix: "warden:",
			TTL:       24 * time.Hour,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "auto",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load loads configuration from the file named by WARDEN_CONFIG.
func Load() (*Config, error) {
	configPath := os.Getenv("WARDEN_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WARDEN_CONFIG environment variable not set; " +
			"set it to the path of your warden.yaml config file, or use --config")
	}
	return LoadFile(configPath)
}

// LoadFile loads, expands, and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes configuration text. name selects the format by
// extension and appears in error messages.
func Parse(name string, data []byte) (*Config, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".jsonc":
		// JSON is a subset of YAML, so once comments and trailing
		// commas are stripped the YAML decoder handles it, including
		// duration strings.
		data = jsonc.ToJSON(data)
	}
	data = []byte(expandVars(string(data)))

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", name, err)
	}
	if cfg.Environment == Production && cfg.Log.Format == "auto" {
		cfg.Log.Format = "json"
	}
	cfg.Matrix.CredentialFile = expandHome(cfg.Matrix.CredentialFile)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", name, err)
	}
	return cfg, nil
}

// varPattern matches ${VAR} and ${VAR:-default}.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if homeDir, err := os.UserHomeDir(); err == nil {
			return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its constraints and reports all
// violations at once, named by their YAML path.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	errs := make([]error, 0, len(validationErrors))
	for _, fieldError := range validationErrors {
		errs = append(errs, fieldErrorMessage(fieldError))
	}
	return errors.Join(errs...)
}

func fieldErrorMessage(fieldError validator.FieldError) error {
	// Namespace is "Config.matrix.burst"; drop the root type.
	_, path, _ := strings.Cut(fieldError.Namespace(), ".")
	switch fieldError.Tag() {
	case "required", "required_if":
		return fmt.Errorf("%s is required", path)
	case "oneof":
		return fmt.Errorf("%s must be one of [%s], got %v", path, fieldError.Param(), fieldError.Value())
	case "startswith":
		return fmt.Errorf("%s must start with %q, got %v", path, fieldError.Param(), fieldError.Value())
	case "hostname_port":
		return fmt.Errorf("%s must be host:port, got %v", path, fieldError.Value())
	case "hostname|hostname_port":
		return fmt.Errorf("%s must be a server name, got %v", path, fieldError.Value())
	default:
		return fmt.Errorf("%s fails %s=%s (got %v)", path, fieldError.Tag(), fieldError.Param(), fieldError.Value())
	}
}
