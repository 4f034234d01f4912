// Package config loads server settings from YAML, the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CLASH_SERVER_GRPC_ADDRESS.
const EnvPrefix = "CLASH"

// Config is the root server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	GRPC            GRPCConfig      `mapstructure:"grpc"`
	WebSocket       WebSocketConfig `mapstructure:"websocket"`
	MaxGames        int             `mapstructure:"max_games"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
}

// GRPCConfig configures the gRPC listener.
type GRPCConfig struct {
	Address              string `mapstructure:"address"`
	MaxConcurrentStreams int    `mapstructure:"max_concurrent_streams"`
}

// WebSocketConfig configures the WebSocket gateway.
type WebSocketConfig struct {
	Address         string        `mapstructure:"address"`
	ReadBufferSize  int           `mapstructure:"read_buffer_size"`
	WriteBufferSize int           `mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `mapstructure:"ping_interval"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig selects and configures the match store.
type DatabaseConfig struct {
	// Driver is one of postgres, sqlite or memory.
	Driver          string        `mapstructure:"driver"`
	URL             string        `mapstructure:"url"`
	Path            string        `mapstructure:"path"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GameConfig holds match settings.
type GameConfig struct {
	// CatalogPath overrides the embedded card catalog when set.
	CatalogPath string `mapstructure:"catalog_path"`
	// ReplayDir receives a replay file per finished match when set.
	ReplayDir      string        `mapstructure:"replay_dir"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.grpc.address", ":50051")
	v.SetDefault("server.grpc.max_concurrent_streams", 100)
	v.SetDefault("server.websocket.address", ":8080")
	v.SetDefault("server.websocket.read_buffer_size", 1024)
	v.SetDefault("server.websocket.write_buffer_size", 1024)
	v.SetDefault("server.websocket.ping_interval", 30*time.Second)
	v.SetDefault("server.websocket.allowed_origins", []string{})
	v.SetDefault("server.max_games", 1000)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.url", "")
	v.SetDefault("database.path", "clash.db")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.max_conn_lifetime", time.Hour)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("game.catalog_path", "")
	v.SetDefault("game.replay_dir", "")
	v.SetDefault("game.command_timeout", 5*time.Second)
	v.SetDefault("game.idle_timeout", 30*time.Minute)
}

// Load reads the configuration file at path. A missing file is not an
// error: defaults and environment overrides still apply. A .env file in the
// working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Server.GRPC.Address == "" && c.Server.WebSocket.Address == "" {
		return fmt.Errorf("at least one of server.grpc.address and server.websocket.address is required")
	}
	if c.Game.CommandTimeout <= 0 {
		return fmt.Errorf("game.command_timeout must be positive")
	}
	return nil
}
