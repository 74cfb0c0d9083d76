package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{
			name:   "default config",
			config: nil,
		},
		{
			name: "custom json config",
			config: &Config{
				Level:  "debug",
				Format: "json",
			},
		},
		{
			name: "console config",
			config: &Config{
				Level:  "info",
				Format: "console",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.config)
			assert.NotNil(t, logger)
		})
	}
}

func TestLogger_JSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	logger.Info("test message")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "info", logEntry["level"])
	assert.Equal(t, "test message", logEntry["message"])
	assert.NotEmpty(t, logEntry["time"])
}

func TestLogger_WithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	childLogger := logger.With().
		Str("service", "datlas").
		Int("port", 8000).
		Logger()

	childLogger.Info("server started")

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "datlas", logEntry["service"])
	assert.Equal(t, float64(8000), logEntry["port"])
	assert.Equal(t, "server started", logEntry["message"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "warn",
		Format: "json",
		Output: buf,
	})

	logger.Debug("dropped")
	logger.Info("dropped too")
	assert.Empty(t, buf.Bytes())

	logger.Warn("kept")
	assert.NotEmpty(t, buf.Bytes())
}

func TestLogger_ErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(&Config{
		Level:  "info",
		Format: "json",
		Output: buf,
	})

	logger.ErrorWith("write failed", errors.New("disk full"), map[string]interface{}{
		"database": "sales",
	})

	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	require.NoError(t, err)

	assert.Equal(t, "error", logEntry["level"])
	assert.Equal(t, "write failed", logEntry["message"])
	assert.Equal(t, "disk full", logEntry["error"])
	assert.Equal(t, "sales", logEntry["database"])
}

func TestLogger_Context(t *testing.T) {
	logger := New(nil)
	ctx := logger.WithContext(context.Background())

	recovered := FromContext(ctx)
	assert.NotNil(t, recovered)

	// A context without a logger still yields a usable logger.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestNop(t *testing.T) {
	logger := Nop()
	require.NotNil(t, logger)
	logger.Info("discarded")
	logger.With().Str("k", "v").Logger().Warn("also discarded")
}
