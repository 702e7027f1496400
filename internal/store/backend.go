package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tally-cli/internal/config"
	"tally-cli/internal/model"
	"tally-cli/internal/todo"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
)

// Backend is a todo.Store that owns a connection.
type Backend interface {
	todo.Store
	Close() error
}

var (
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Redis)(nil)
	_ Backend = (*Memory)(nil)
)

// SQLiteFile is the database file name inside the storage dir.
const SQLiteFile = "tally.sqlite"

// Open returns the backend cfg selects, scoped to cfg.Namespace.
func Open(ctx context.Context, cfg config.StorageConfig, logger *log.Entry) (Backend, error) {
	ns := strings.TrimSpace(cfg.Namespace)
	if ns == "" {
		return nil, fmt.Errorf("store: empty namespace")
	}
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	logger = logger.WithFields(log.Fields{"backend": cfg.Backend, "namespace": ns})

	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.BackendSQLite:
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			d, err := config.Dir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		path := filepath.Join(dir, SQLiteFile)
		logger.WithField("path", path).Debug("opening sqlite store")
		return OpenSQLite(ctx, path, ns)
	case config.BackendRedis:
		logger.Debug("connecting to redis")
		return DialRedis(ctx, cfg.RedisURL, ns)
	case config.BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Backend)
	}
}

func encodeRecord(rec model.Task) ([]byte, error) {
	return sonic.Marshal(rec)
}

func decodeRecord(b []byte) (model.Task, error) {
	var rec model.Task
	err := sonic.Unmarshal(b, &rec)
	return rec, err
}
