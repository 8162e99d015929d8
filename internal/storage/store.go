package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// ErrUnavailable wraps every backend failure (I/O, connection, SQL).
var ErrUnavailable = errors.New("storage unavailable")

// Store is a durable string-valued key-value store. Values are always
// written whole; there are no partial updates.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Backend     string
	DataDir     string
	SQLitePath  string
	RedisAddr   string
	RedisPrefix string
	Logger      *zap.Logger // file backend only
}

// Open returns the backend named by opts.Backend (file when empty).
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return OpenFile(opts.DataDir, opts.Logger)
	case BackendSQLite:
		dsn := opts.SQLitePath
		if dsn == "" {
			if err := os.MkdirAll(opts.DataDir, 0700); err != nil {
				return nil, unavailable("create data directory", err)
			}
			dsn = filepath.Join(opts.DataDir, "wallet.db")
		}
		return OpenSQLite(dsn)
	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", opts.Backend)
	}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
