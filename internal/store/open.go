package store

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/config"
)

// Driver names accepted in store.driver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverFile     = "file"
)

// Open selects the durable tier once. An unconfigured or unreachable tier
// is logged and replaced by the file store; only a file store failure is
// returned.
func Open(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.L()
	}
	s, err := openDurable(ctx, cfg)
	if err == nil && s != nil {
		logger.Info("store: using durable tier", zap.String("tier", s.Name()))
		return s, nil
	}
	if err != nil {
		logger.Warn("store: durable tier unavailable, falling back to file store",
			zap.String("driver", cfg.Driver),
			zap.Error(err),
		)
	}
	fileStore, ferr := NewFileStore(cfg.CacheDir)
	if ferr != nil {
		return nil, ferr
	}
	return fileStore, nil
}

// openDurable returns nil, nil when the file tier was asked for.
func openDurable(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: database_url not set")
		}
		s, err := NewPostgres(ctx, cfg.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		if cfg.SQLitePath == "" {
			return nil, eris.New("store: sqlite_path not set")
		}
		s, err := NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case DriverRedis:
		if cfg.RedisAddr == "" {
			return nil, eris.New("store: redis_addr not set")
		}
		return NewRedis(ctx, RedisConfig{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	case DriverFile, "":
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
