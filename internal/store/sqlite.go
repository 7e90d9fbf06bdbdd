package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/salgsmotor/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	psql sq.StatementBuilderType
	now  func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "store: sqlite exec %s", pragma)
		}
	}
	return &SQLiteStore{
		db:   db,
		psql: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now:  time.Now,
	}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS company_cache (
	orgnr        VARCHAR(20) PRIMARY KEY,
	data         TEXT NOT NULL,
	last_updated DATETIME NOT NULL DEFAULT (datetime('now'))
);
`

// Migrate creates the cache table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "store: sqlite migrate")
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, orgnr model.OrgNumber) (*model.Record, error) {
	query, args, err := s.psql.Select("data").From(cacheTable).Where(sq.Eq{"orgnr": orgnr.String()}).ToSql()
	if err != nil {
		return nil, eris.Wrap(err, "store: sqlite build select")
	}
	var data string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "store: sqlite select")
	}
	return decodeRecord([]byte(data))
}

func (s *SQLiteStore) Put(ctx context.Context, orgnr model.OrgNumber, rec *model.Record) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	query, args, err := s.psql.Insert(cacheTable).
		Columns("orgnr", "data", "last_updated").
		Values(orgnr.String(), string(data), s.now().UTC().Format(time.RFC3339Nano)).
		Suffix(upsertSuffix).
		ToSql()
	if err != nil {
		return eris.Wrap(err, "store: sqlite build upsert")
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return eris.Wrap(err, "store: sqlite upsert")
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return eris.Wrap(err, "store: sqlite ping")
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Name() string { return "sqlite" }
