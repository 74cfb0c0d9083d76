package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/DatLas/internal/errs"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
source:
  dsn: oracle://user:pass@db:1521/ORCL
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "oracle", cfg.Source.Dialect)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "bolt://localhost:7687", cfg.Graph.URI)
	assert.True(t, cfg.Introspection.MultiDatabase)
	assert.True(t, cfg.Introspection.InferenceEnabled)
	assert.InDelta(t, 0.7, cfg.Introspection.InferenceThreshold, 1e-9)
	assert.False(t, cfg.ArchiveEnabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
log:
  level: debug
source:
  dialect: postgres
  dsn: postgres://user:pass@db:5432/app
introspection:
  default_database: app
  inference_threshold: 0.8
archive:
  endpoint: minio:9000
  access_key: minioadmin
  secret_key: minioadmin
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Source.Dialect)
	assert.Equal(t, "app", cfg.Introspection.DefaultDatabase)
	assert.InDelta(t, 0.8, cfg.Introspection.InferenceThreshold, 1e-9)
	assert.True(t, cfg.ArchiveEnabled())
	assert.Equal(t, "datlas-snapshots", cfg.Archive.Bucket)
}

func TestLoad_DurationParsing(t *testing.T) {
	path := writeConfig(t, `
server:
  read_timeout: 45s
  shutdown_timeout: 2m
source:
  dsn: oracle://u:p@db:1521/ORCL
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 45*time.Second, cfg.Server.ReadTimeout.Std())
	assert.Equal(t, 2*time.Minute, cfg.Server.ShutdownTimeout.Std())
	// Untouched duration keeps its default.
	assert.Equal(t, 60*time.Second, cfg.Server.WriteTimeout.Std())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
source:
  dialect: postgres
  dsn: postgres://file-dsn
`)
	t.Setenv("DATLAS_SOURCE_DSN", "postgres://env-dsn")
	t.Setenv("DATLAS_SERVER_PORT", "9999")
	t.Setenv("DATLAS_INFERENCE_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres://env-dsn", cfg.Source.DSN)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Introspection.InferenceEnabled)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DATLAS_SOURCE_DSN", "oracle://user:pass@db:1521/ORCL")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "oracle", cfg.Source.Dialect)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad dialect",
			content: `
source:
  dialect: sqlite
  dsn: file:test.db
`,
		},
		{
			name: "missing dsn",
			content: `
source:
  dialect: postgres
`,
		},
		{
			name: "threshold out of range",
			content: `
source:
  dsn: oracle://u:p@db:1521/ORCL
introspection:
  inference_threshold: 1.5
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errs.IsInvalidInput(err))
		})
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "source: [not: valid"))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}
