// Package store persists enriched records in exactly one durable tier:
// Postgres, SQLite, Redis or JSON files on disk.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/salgsmotor/internal/metrics"
	"github.com/sells-group/salgsmotor/internal/model"
)

// Store is one cache tier keyed by organization number.
type Store interface {
	// Get returns the stored record, or nil, nil on a miss.
	Get(ctx context.Context, orgnr model.OrgNumber) (*model.Record, error)
	// Put replaces the stored record atomically.
	Put(ctx context.Context, orgnr model.OrgNumber, rec *model.Record) error
	Ping(ctx context.Context) error
	Close() error
	// Name identifies the tier in logs and metrics.
	Name() string
}

// Cache wraps a single tier. Tier errors never reach the caller: reads
// degrade to a miss and writes are dropped.
type Cache struct {
	store Store
	now   func() time.Time
}

// NewCache wraps s.
func NewCache(s Store) *Cache {
	return &Cache{store: s, now: time.Now}
}

// Tier returns the wrapped tier name.
func (c *Cache) Tier() string { return c.store.Name() }

// Load returns the cached record for orgnr.
func (c *Cache) Load(ctx context.Context, orgnr model.OrgNumber) (*model.Record, bool) {
	rec, err := c.store.Get(ctx, orgnr)
	if err != nil {
		zap.L().Warn("store: cache read failed, treating as miss",
			zap.String("tier", c.store.Name()),
			zap.String("orgnr", orgnr.String()),
			zap.Error(err),
		)
		metrics.CacheErrors.WithLabelValues(c.store.Name(), "get").Inc()
		return nil, false
	}
	if rec == nil {
		return nil, false
	}
	return rec, true
}

// Save stores a copy of rec stamped with the current UTC time. The caller's
// record is left unstamped.
func (c *Cache) Save(ctx context.Context, orgnr model.OrgNumber, rec *model.Record) {
	if err := c.store.Put(ctx, orgnr, rec.Stamped(c.now())); err != nil {
		zap.L().Warn("store: cache write dropped",
			zap.String("tier", c.store.Name()),
			zap.String("orgnr", orgnr.String()),
			zap.Error(err),
		)
		metrics.CacheErrors.WithLabelValues(c.store.Name(), "put").Inc()
	}
}

// Close closes the wrapped tier.
func (c *Cache) Close() error { return c.store.Close() }

func encodeRecord(rec *model.Record) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal record")
	}
	return data, nil
}

func decodeRecord(data []byte) (*model.Record, error) {
	var rec model.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal record")
	}
	return &rec, nil
}
