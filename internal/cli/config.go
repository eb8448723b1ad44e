package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/flowgrid/flowgrid/pkg/editor"
	"github.com/flowgrid/flowgrid/pkg/errors"
)

// Config is the TOML configuration surface shared by all commands.
//
//	[editor]
//	curvature = 0.5
//	reroute = true
//
//	[server]
//	addr = ":8080"
//	store = "file"
//
//	[cache]
//	enabled = true
type Config struct {
	Editor editor.Options `toml:"editor"`
	Server ServerConfig   `toml:"server"`
	Cache  CacheConfig    `toml:"cache"`
}

// ServerConfig configures the serve command.
type ServerConfig struct {
	Addr string `toml:"addr"`

	// Store selects the snapshot backend: memory, file, redis or mongo.
	Store    string `toml:"store"`
	StoreDir string `toml:"store_dir"`

	RedisAddr     string `toml:"redis_addr"`
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// CacheConfig configures the rendered-artifact cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	TTL     string `toml:"ttl"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Editor: editor.DefaultOptions(),
		Server: ServerConfig{
			Addr:          ":8080",
			Store:         "memory",
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: appName,
		},
		Cache: CacheConfig{Enabled: true},
	}
}

// LoadConfig reads a TOML config file and overlays it on the defaults.
// An empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config file not found")
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config file")
	}
	if err := cfg.Editor.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// cacheTTL parses the configured artifact TTL. Zero means no expiration.
func (c CacheConfig) cacheTTL() (time.Duration, error) {
	if c.TTL == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.TTL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse cache ttl")
	}
	return d, nil
}

// cacheDir returns the artifact cache directory using the XDG standard
// (~/.cache/flowgrid/) unless overridden.
func (c CacheConfig) cacheDir() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
