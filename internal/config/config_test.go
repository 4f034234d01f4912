package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":50051", cfg.Server.GRPC.Address)
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 5*time.Second, cfg.Game.CommandTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.WebSocket.PingInterval)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  grpc:
    address: "127.0.0.1:9000"
database:
  driver: sqlite
  path: /tmp/clash-test.db
logging:
  level: debug
  format: json
game:
  replay_dir: /tmp/replays
  command_timeout: 2s
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.GRPC.Address)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "/tmp/clash-test.db", cfg.Database.Path)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/replays", cfg.Game.ReplayDir)
	assert.Equal(t, 2*time.Second, cfg.Game.CommandTimeout)
	// untouched keys keep their defaults
	assert.Equal(t, ":8080", cfg.Server.WebSocket.Address)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CLASH_LOGGING_LEVEL", "warn")
	t.Setenv("CLASH_SERVER_WEBSOCKET_ADDRESS", ":9999")

	cfg, err := Load(writeConfig(t, "logging:\n  level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, ":9999", cfg.Server.WebSocket.Address)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"unknown driver", "database:\n  driver: mongo\n", `unknown database driver "mongo"`},
		{"postgres without url", "database:\n  driver: postgres\n  url: \"\"\n", "database.url is required"},
		{"no listener", "server:\n  grpc:\n    address: \"\"\n  websocket:\n    address: \"\"\n", "at least one of"},
		{"zero timeout", "game:\n  command_timeout: 0s\n", "command_timeout must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := Load(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}
