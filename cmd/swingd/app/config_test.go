package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: debug
sensor:
  driver: replay
  replay:
    path: /tmp/swing.csv
    realtime: true
detection:
  sensitivity: 1.2
  practiceMode: true
storage:
  dataDirectory: data
  maxBatchSize: 50
server:
  enabled: true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, config.Settings.Level())
	assert.Equal(t, DriverReplay, config.Sensor.Driver)
	assert.Equal(t, "/tmp/swing.csv", config.Sensor.Replay.Path)
	assert.True(t, config.Sensor.Replay.Realtime)
	assert.True(t, config.Detection.PracticeMode)
	assert.Equal(t, 50, config.Storage.MaxBatchSize)
	assert.Equal(t, "localhost:8690", config.Server.Addr, "default addr when server enabled")

	dc := config.detectorConfig()
	assert.Equal(t, 1.2, dc.Sensitivity)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing driver", "settings:\n  logLevel: info\n"},
		{"unknown driver", "sensor:\n  driver: radar\n"},
		{"replay without path", "sensor:\n  driver: replay\n"},
		{"ble without device name", "sensor:\n  driver: ble\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSettings_LevelDefaults(t *testing.T) {
	assert.Equal(t, slog.LevelInfo, Settings{}.Level())
	assert.Equal(t, slog.LevelWarn, Settings{LogLevel: "WARNING"}.Level())
	assert.Equal(t, slog.LevelError, Settings{LogLevel: "error"}.Level())
}
