// Package config loads DatLas configuration from a YAML file with
// environment-variable overrides. Precedence: defaults, then file, then
// DATLAS_* environment variables.
package config

import (
	"os"
	"strconv"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/koustreak/DatLas/internal/errs"
)

// Config is the full DatLas configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Log           LogConfig           `yaml:"log"`
	Source        SourceConfig        `yaml:"source"`
	Graph         GraphConfig         `yaml:"graph"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Introspection IntrospectionConfig `yaml:"introspection"`
}

// Duration wraps time.Duration so yaml can parse "30s" style values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// SourceConfig points at the relational database being introspected.
type SourceConfig struct {
	Dialect      string `yaml:"dialect"` // oracle, postgres, mysql
	DSN          string `yaml:"dsn"`
	SchemaFilter string `yaml:"schema_filter"` // empty scans every non-system schema
}

// GraphConfig points at the Neo4j graph store.
type GraphConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ArchiveConfig configures optional snapshot archiving. Disabled when the
// endpoint is empty.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

// IntrospectionConfig controls graph construction.
type IntrospectionConfig struct {
	DefaultDatabase    string  `yaml:"default_database"`
	MultiDatabase      bool    `yaml:"multi_database"`
	InferenceEnabled   bool    `yaml:"inference_enabled"`
	InferenceThreshold float64 `yaml:"inference_threshold"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Source: SourceConfig{
			Dialect: "oracle",
		},
		Graph: GraphConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Archive: ArchiveConfig{
			Bucket: "datlas-snapshots",
		},
		Introspection: IntrospectionConfig{
			DefaultDatabase:    "default",
			MultiDatabase:      true,
			InferenceEnabled:   true,
			InferenceThreshold: 0.7,
		},
	}
}

// Load reads configuration from path (skipped when empty or missing) and
// applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, errs.Wrap(errs.SubsystemCatalog, errs.ErrKindInvalidInput, "read config file", err)
			}
		} else if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, errs.Wrap(errs.SubsystemCatalog, errs.ErrKindInvalidInput, "parse config file", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Host, "DATLAS_SERVER_HOST")
	setInt(&c.Server.Port, "DATLAS_SERVER_PORT")
	setString(&c.Log.Level, "DATLAS_LOG_LEVEL")
	setString(&c.Log.Format, "DATLAS_LOG_FORMAT")
	setString(&c.Source.Dialect, "DATLAS_SOURCE_DIALECT")
	setString(&c.Source.DSN, "DATLAS_SOURCE_DSN")
	setString(&c.Source.SchemaFilter, "DATLAS_SOURCE_SCHEMA_FILTER")
	setString(&c.Graph.URI, "DATLAS_NEO4J_URI")
	setString(&c.Graph.Username, "DATLAS_NEO4J_USERNAME")
	setString(&c.Graph.Password, "DATLAS_NEO4J_PASSWORD")
	setString(&c.Graph.Database, "DATLAS_NEO4J_DATABASE")
	setString(&c.Archive.Endpoint, "DATLAS_ARCHIVE_ENDPOINT")
	setString(&c.Archive.AccessKey, "DATLAS_ARCHIVE_ACCESS_KEY")
	setString(&c.Archive.SecretKey, "DATLAS_ARCHIVE_SECRET_KEY")
	setString(&c.Archive.Bucket, "DATLAS_ARCHIVE_BUCKET")
	setBool(&c.Archive.UseSSL, "DATLAS_ARCHIVE_USE_SSL")
	setString(&c.Introspection.DefaultDatabase, "DATLAS_DEFAULT_DATABASE")
	setBool(&c.Introspection.MultiDatabase, "DATLAS_MULTI_DATABASE")
	setBool(&c.Introspection.InferenceEnabled, "DATLAS_INFERENCE_ENABLED")
	setFloat(&c.Introspection.InferenceThreshold, "DATLAS_INFERENCE_THRESHOLD")
}

func (c *Config) validate() error {
	switch c.Source.Dialect {
	case "oracle", "postgres", "mysql":
	default:
		return errs.New(errs.SubsystemCatalog, errs.ErrKindInvalidInput,
			"unsupported source dialect: "+c.Source.Dialect)
	}
	if c.Source.DSN == "" {
		return errs.New(errs.SubsystemCatalog, errs.ErrKindInvalidInput, "source dsn is required")
	}
	if c.Introspection.InferenceThreshold < 0 || c.Introspection.InferenceThreshold > 1 {
		return errs.New(errs.SubsystemCatalog, errs.ErrKindInvalidInput,
			"inference threshold must be in [0, 1]")
	}
	return nil
}

// ArchiveEnabled reports whether snapshot archiving is configured.
func (c *Config) ArchiveEnabled() bool {
	return c.Archive.Endpoint != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}
