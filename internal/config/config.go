// Package config loads erdwallet settings from flags, environment, an
// optional config file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/yolodolo42/erdwallet/internal/gateway"
	"github.com/yolodolo42/erdwallet/internal/network"
	"github.com/yolodolo42/erdwallet/internal/storage"
)

// EnvPrefix is prepended to every environment override, e.g.
// ERDWALLET_STORAGE_BACKEND for storage.backend.
const EnvPrefix = "ERDWALLET"

// Config is the resolved configuration for one CLI run.
type Config struct {
	Network        string        `mapstructure:"network"`
	DataDir        string        `mapstructure:"data_dir"`
	GatewayURL     string        `mapstructure:"gateway_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	Storage        StorageConfig `mapstructure:"storage"`
	Log            LogConfig     `mapstructure:"log"`
}

type StorageConfig struct {
	Backend     string `mapstructure:"backend"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	RedisAddr   string `mapstructure:"redis_addr"`
	RedisPrefix string `mapstructure:"redis_prefix"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// DefaultDataDir is ~/.erdwallet, or a relative .erdwallet when the home
// directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".erdwallet"
	}
	return filepath.Join(home, ".erdwallet")
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("network", network.Default)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("gateway_url", "")
	v.SetDefault("request_timeout", gateway.DefaultTimeout)
	v.SetDefault("storage.backend", storage.BackendFile)
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.redis_addr", "")
	v.SetDefault("storage.redis_prefix", storage.DefaultRedisPrefix)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)
}

// LoadDotEnv loads path (".env" when empty) into the process environment.
// A missing file is not an error; existing variables are not overridden.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ReadFile points v at cfgFile, or at config.yaml under the data dir and
// the working directory. A missing file is not an error.
func ReadFile(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(v.GetString("data_dir"))
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		if cfgFile == "" && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load decodes and validates v.
func Load(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if _, err := network.Lookup(c.Network); err != nil {
		return err
	}
	if c.DataDir == "" {
		return errors.New("data_dir is required")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if c.GatewayURL != "" {
		u, err := url.Parse(c.GatewayURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid gateway_url %q", c.GatewayURL)
		}
	}
	switch c.Storage.Backend {
	case storage.BackendFile, storage.BackendSQLite, storage.BackendMemory:
	case storage.BackendRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	return nil
}

// ResolveNetwork returns the selected network profile with any gateway
// override applied.
func (c *Config) ResolveNetwork() (*network.Network, error) {
	n, err := network.Lookup(c.Network)
	if err != nil {
		return nil, err
	}
	if c.GatewayURL != "" {
		n.APIURL = c.GatewayURL
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return n, nil
}

func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.Storage.Backend,
		DataDir:     c.DataDir,
		SQLitePath:  c.Storage.SQLitePath,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}
