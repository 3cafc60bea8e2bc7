// Package rediscache persists a point-in-time snapshot of the
// task-queue index in Redis, to shorten cold-start reconciliation after
// a restart. Grounded on internal/snapshot/snapshot_manager.go's
// periodic-save design, re-expressed over github.com/redis/go-redis/v9
// instead of an atomic local file: the snapshot here is discardable at
// any time (the caller re-verifies every loaded entry against the job
// store before trusting it), so it does not need the rename-on-write
// durability the original file snapshot relied on.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gridmatch/matcher/pkg/domain"
)

// ErrNotFound is returned by Load when no snapshot has been saved yet —
// an expected condition on first startup.
var ErrNotFound = errors.New("rediscache: no snapshot found")

const schemaVersion = 1

// Snapshot is the persisted shape: queue listings plus membership,
// enough to prime taskqueue.Index.Rebuild without a job-store round
// trip on cold start.
type Snapshot struct {
	SchemaVersion int                                `json:"schema_version"`
	Queues        []domain.TaskQueueInfo             `json:"queues"`
	JobsByQueue   map[domain.QueueID][]domain.JobID `json:"jobs_by_queue"`
	SavedAt       time.Time                         `json:"saved_at"`
}

// Cache wraps a redis client under a single fixed key.
type Cache struct {
	client *redis.Client
	key    string
}

// New builds a Cache over an existing redis client.
func New(client *redis.Client, key string) *Cache {
	if key == "" {
		key = "matcher:taskqueue:snapshot"
	}
	return &Cache{client: client, key: key}
}

// Save persists the current snapshot, overwriting any previous one.
func (c *Cache) Save(ctx context.Context, snap Snapshot) error {
	snap.SchemaVersion = schemaVersion
	snap.SavedAt = snap.SavedAt.UTC()
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key, data, 0).Err()
}

// Load retrieves the most recently saved snapshot. The caller must
// still reconcile every entry against the job store before trusting it
// — this cache is never authoritative (spec.md §4.3).
func (c *Cache) Load(ctx context.Context) (Snapshot, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, err
	}
	if snap.SchemaVersion != schemaVersion {
		return Snapshot{}, errors.New("rediscache: incompatible schema version")
	}
	return snap, nil
}
