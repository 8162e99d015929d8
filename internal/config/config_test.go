package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/erdwallet/internal/storage"
	"github.com/yolodolo42/erdwallet/internal/testutil"
)

func TestLoad_Defaults(t *testing.T) {
	testutil.UnsetEnv(t, "ERDWALLET_NETWORK")
	testutil.UnsetEnv(t, "ERDWALLET_STORAGE_BACKEND")

	c, err := Load(New())
	require.NoError(t, err)

	assert.Equal(t, "testnet", c.Network)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, storage.BackendFile, c.Storage.Backend)
	assert.Equal(t, "erdwallet", c.Storage.RedisPrefix)
	assert.Equal(t, "warn", c.Log.Level)
	assert.NotEmpty(t, c.DataDir)
}

func TestLoad_Env(t *testing.T) {
	testutil.SetEnv(t, "ERDWALLET_NETWORK", "devnet")
	testutil.SetEnv(t, "ERDWALLET_STORAGE_BACKEND", "sqlite")
	testutil.SetEnv(t, "ERDWALLET_REQUEST_TIMEOUT", "3s")
	testutil.SetEnv(t, "ERDWALLET_LOG_LEVEL", "debug")

	c, err := Load(New())
	require.NoError(t, err)
	assert.Equal(t, "devnet", c.Network)
	assert.Equal(t, storage.BackendSQLite, c.Storage.Backend)
	assert.Equal(t, 3*time.Second, c.RequestTimeout)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestReadFile(t *testing.T) {
	dir := testutil.TempDir(t)

	t.Run("yaml file", func(t *testing.T) {
		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
network: mainnet
gateway_url: http://localhost:7950
storage:
  backend: memory
log:
  development: true
`), 0600))

		v := New()
		require.NoError(t, ReadFile(v, path))
		c, err := Load(v)
		require.NoError(t, err)
		assert.Equal(t, "mainnet", c.Network)
		assert.Equal(t, storage.BackendMemory, c.Storage.Backend)
		assert.True(t, c.Log.Development)

		n, err := c.ResolveNetwork()
		require.NoError(t, err)
		assert.Equal(t, "1", n.ChainID)
		assert.Equal(t, "http://localhost:7950", n.APIURL)
	})

	t.Run("missing default file is fine", func(t *testing.T) {
		v := New()
		v.Set("data_dir", filepath.Join(dir, "nothing-here"))
		require.NoError(t, ReadFile(v, ""))
	})

	t.Run("missing explicit file fails", func(t *testing.T) {
		assert.Error(t, ReadFile(New(), filepath.Join(dir, "absent.yaml")))
	})
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Network:        "testnet",
			DataDir:        "/tmp/x",
			RequestTimeout: time.Second,
			Storage:        StorageConfig{Backend: storage.BackendFile},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown network", func(c *Config) { c.Network = "moonnet" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }},
		{"bad gateway url", func(c *Config) { c.GatewayURL = "not a url" }},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "etcd" }},
		{"redis without addr", func(c *Config) { c.Storage.Backend = storage.BackendRedis }},
	}

	c := valid()
	require.NoError(t, c.Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestStorageOptions(t *testing.T) {
	c := Config{
		DataDir: "/data",
		Storage: StorageConfig{Backend: "redis", RedisAddr: "localhost:6379", RedisPrefix: "w"},
	}
	opts := c.StorageOptions()
	assert.Equal(t, storage.Options{
		Backend: "redis", DataDir: "/data", RedisAddr: "localhost:6379", RedisPrefix: "w",
	}, opts)
}

func TestLoadDotEnv(t *testing.T) {
	dir := testutil.TempDir(t)
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("ERDWALLET_TEST_DOTENV=from-file\n"), 0600))
	testutil.UnsetEnv(t, "ERDWALLET_TEST_DOTENV")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("ERDWALLET_TEST_DOTENV"))
	t.Cleanup(func() { _ = os.Unsetenv("ERDWALLET_TEST_DOTENV") })
}
