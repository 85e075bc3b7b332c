package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aretw0/speriment/internal/logging"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigFile is looked up in the working directory when no --config is given.
const DefaultConfigFile = "speriment.yaml"

// EnvPrefix marks environment overrides: SPERIMENT_STORE_REDIS_ADDR -> store.redis_addr.
const EnvPrefix = "SPERIMENT_"

const maxConfigFileSize = 1024 * 1024 // 1MB

// Config is the project configuration shared by all commands.
type Config struct {
	Compile CompileConfig `koanf:"compile"`
	Store   StoreConfig   `koanf:"store"`
	Log     LogConfig     `koanf:"log"`
	Serve   ServeConfig   `koanf:"serve"`
}

// CompileConfig holds compiler defaults.
type CompileConfig struct {
	Seed int `koanf:"seed"`
	// Format is "json" (bare artifact) or "script" (`var <name> = ...`).
	Format string `koanf:"format"`
	// Schema optionally replaces the embedded artifact schema.
	Schema string `koanf:"schema"`
}

// StoreConfig selects where compiled artifacts are kept.
type StoreConfig struct {
	// Type is one of none, memory, file, redis.
	Type          string        `koanf:"type"`
	Path          string        `koanf:"path"`
	RedisAddr     string        `koanf:"redis_addr"`
	RedisPassword string        `koanf:"redis_password"`
	RedisDB       int           `koanf:"redis_db"`
	Prefix        string        `koanf:"prefix"`
	TTL           time.Duration `koanf:"ttl"`
	// EncryptionKey (base64, 32 bytes) encrypts artifacts at rest with AES-GCM.
	EncryptionKey string `koanf:"encryption_key"`
	// FallbackKeys are previous keys still accepted for decryption.
	FallbackKeys []string `koanf:"fallback_keys"`
}

// LogConfig configures the application logger.
type LogConfig struct {
	Level string `koanf:"level"`
	// Format is "text" or "json".
	Format string `koanf:"format"`
}

// ServeConfig configures the HTTP and MCP servers.
type ServeConfig struct {
	Addr    string `koanf:"addr"`
	MCPAddr string `koanf:"mcp_addr"`
	Metrics bool   `koanf:"metrics"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads path, then applies SPERIMENT_* environment overrides.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables
//  2. YAML config file
//  3. Defaults
//
// An empty path means DefaultConfigFile, which may be absent. An explicit path must exist.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}
	content, err := readConfigFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist) && !explicit:
	case err != nil:
		return nil, err
	default:
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if len(data) > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}
	return data, nil
}

// envKey maps SPERIMENT_SECTION_FIELD_NAME to section.field_name.
// Splitting on the first underscore only keeps underscores in field names.
func envKey(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	section, field, ok := strings.Cut(lower, "_")
	if !ok {
		return lower
	}
	return section + "." + field
}

func applyDefaults(cfg *Config) {
	if cfg.Compile.Format == "" {
		cfg.Compile.Format = "json"
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = "none"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "artifacts"
	}
	if cfg.Store.RedisAddr == "" {
		cfg.Store.RedisAddr = "localhost:6379"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Serve.Addr == "" {
		cfg.Serve.Addr = ":8080"
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if c.Compile.Seed < 0 {
		return fmt.Errorf("compile.seed must not be negative, got %d", c.Compile.Seed)
	}
	if err := oneOf("compile.format", c.Compile.Format, "json", "script"); err != nil {
		return err
	}
	if err := oneOf("store.type", c.Store.Type, "none", "memory", "file", "redis"); err != nil {
		return err
	}
	if c.Store.TTL < 0 {
		return fmt.Errorf("store.ttl must not be negative, got %s", c.Store.TTL)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return oneOf("log.format", c.Log.Format, "text", "json")
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), value)
}
