package store

import (
	"context"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/salgsmotor/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const cacheTable = "company_cache"

const upsertSuffix = "ON CONFLICT (orgnr) DO UPDATE SET data = EXCLUDED.data, last_updated = EXCLUDED.last_updated"

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	psql sq.StatementBuilderType
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: postgres ping")
	}
	return NewPostgresWithPool(pool), nil
}

// NewPostgresWithPool wraps an existing pool.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		now:  time.Now,
	}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS company_cache (
	orgnr        VARCHAR(20) PRIMARY KEY,
	data         JSONB NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Migrate creates the cache table.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "store: postgres migrate")
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orgnr model.OrgNumber) (*model.Record, error) {
	query, args, err := s.psql.Select("data").From(cacheTable).Where(sq.Eq{"orgnr": orgnr.String()}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "store: postgres build select")
	}
	var data []byte
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: postgres select")
	}
	return decodeRecord(data)
}

func (s *PostgresStore) Put(ctx context.Context, orgnr model.OrgNumber, rec *model.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	query, args, err := s.psql.Insert(cacheTable).
		Columns("orgnr", "data", "last_updated").
		Values(orgnr.String(), data, s.now().UTC()).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return eris.Wrap(err, "store: postgres build upsert")
	}
	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return eris.Wrap(err, "store: postgres upsert")
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return eris.Wrap(err, "store: postgres ping")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }
