// Package config loads the engine configuration: YAML file, environment
// overrides, validated defaults.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hfmatch/internal/schema"
)

// Config is the full runtime configuration.
type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MatchingConfig holds key composition and score thresholds.
type MatchingConfig struct {
	KeyColumns          []string `yaml:"key_columns"`
	Threshold           int      `yaml:"threshold"`
	MultiLevelThreshold int      `yaml:"multi_level_threshold"`
	ColumnThreshold     int      `yaml:"column_threshold"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
}

// DatabaseConfig holds reference registry connection settings. The
// registry is optional; file-against-file runs never open a connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// LoggingConfig selects logger verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Matching: MatchingConfig{
			KeyColumns: []string{
				string(schema.FieldRegion),
				string(schema.FieldZone),
				string(schema.FieldWoreda),
				string(schema.FieldFacility),
			},
			Threshold:           80,
			MultiLevelThreshold: 90,
			ColumnThreshold:     schema.DefaultColumnThreshold,
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			MaxUploadMB: 32,
		},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "hfmatch",
			User:    "hfmatch",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load builds the configuration in three layers: defaults, then the
// YAML file when path is non-empty, then environment overrides. The
// result is validated before it is returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays HFMATCH_* settings and the standard libpq PG*
// variables onto the loaded file values.
func (c *Config) applyEnv() {
	c.Matching.Threshold = GetEnvInt("HFMATCH_THRESHOLD", c.Matching.Threshold)
	c.Matching.MultiLevelThreshold = GetEnvInt("HFMATCH_MULTI_LEVEL_THRESHOLD", c.Matching.MultiLevelThreshold)
	c.Matching.ColumnThreshold = GetEnvInt("HFMATCH_COLUMN_THRESHOLD", c.Matching.ColumnThreshold)

	c.Server.Host = GetEnv("HFMATCH_HOST", c.Server.Host)
	c.Server.Port = GetEnvInt("HFMATCH_PORT", c.Server.Port)
	c.Server.MaxUploadMB = GetEnvInt("HFMATCH_MAX_UPLOAD_MB", c.Server.MaxUploadMB)

	c.Logging.Level = GetEnv("HFMATCH_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = GetEnv("HFMATCH_LOG_FORMAT", c.Logging.Format)

	c.Database.Host = GetEnv("PGHOST", c.Database.Host)
	c.Database.Port = GetEnvInt("PGPORT", c.Database.Port)
	c.Database.Name = GetEnv("PGDATABASE", c.Database.Name)
	c.Database.User = GetEnv("PGUSER", c.Database.User)
	c.Database.Password = GetEnv("PGPASSWORD", c.Database.Password)
	c.Database.SSLMode = GetEnv("PGSSLMODE", c.Database.SSLMode)
}

// Validate checks ranges and the key column list.
func (c *Config) Validate() error {
	for name, v := range map[string]int{
		"matching.threshold":             c.Matching.Threshold,
		"matching.multi_level_threshold": c.Matching.MultiLevelThreshold,
		"matching.column_threshold":      c.Matching.ColumnThreshold,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s = %d, must be 0-100", name, v)
		}
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port = %d, must be 1-65535", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 1 {
		return fmt.Errorf("server.max_upload_mb = %d, must be positive", c.Server.MaxUploadMB)
	}

	if _, err := c.KeyFields(); err != nil {
		return err
	}
	return nil
}

// KeyFields translates the configured key column names into logical
// fields. The list must be non-empty, free of duplicates, and drawn
// from the four fields the engine understands.
func (c *Config) KeyFields() ([]schema.LogicalField, error) {
	if len(c.Matching.KeyColumns) == 0 {
		return nil, fmt.Errorf("matching.key_columns is empty")
	}

	known := map[string]schema.LogicalField{
		string(schema.FieldRegion):   schema.FieldRegion,
		string(schema.FieldZone):     schema.FieldZone,
		string(schema.FieldWoreda):   schema.FieldWoreda,
		string(schema.FieldFacility): schema.FieldFacility,
	}

	fields := make([]schema.LogicalField, 0, len(c.Matching.KeyColumns))
	seen := make(map[string]bool, len(c.Matching.KeyColumns))
	for _, name := range c.Matching.KeyColumns {
		f, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("matching.key_columns: unknown field %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("matching.key_columns: duplicate field %q", name)
		}
		seen[name] = true
		fields = append(fields, f)
	}
	return fields, nil
}

// DSN renders the lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}
