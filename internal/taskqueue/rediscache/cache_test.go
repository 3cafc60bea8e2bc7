package rediscache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/gridmatch/matcher/pkg/domain"
)

// addrFromEnv grounds this package's tests on the same env-var-driven
// live-backend convention used for Postgres (see
// internal/jobstore/postgres/store_test.go, DESIGN.md): they require a
// real Redis instance and are skipped when MATCHER_TEST_REDIS_ADDR isn't
// set, rather than faking the client.
func addrFromEnv(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("MATCHER_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MATCHER_TEST_REDIS_ADDR not set, skipping redis integration test")
	}
	return addr
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: addrFromEnv(t)})
	t.Cleanup(func() { client.Close() })
	return New(client, "matcher:test:"+uuid.New().String())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	snap := Snapshot{
		Queues:      []domain.TaskQueueInfo{{QueueID: 1, Priority: 10, RequirementsText: "true"}},
		JobsByQueue: map[domain.QueueID][]domain.JobID{1: {42, 43}},
	}
	if err := cache.Save(ctx, snap); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := cache.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Queues) != 1 || got.Queues[0].QueueID != 1 {
		t.Fatalf("Queues = %+v", got.Queues)
	}
	if len(got.JobsByQueue[1]) != 2 {
		t.Fatalf("JobsByQueue[1] = %v, want 2 entries", got.JobsByQueue[1])
	}
	if got.SchemaVersion != schemaVersion {
		t.Fatalf("SchemaVersion = %d, want %d", got.SchemaVersion, schemaVersion)
	}
}

func TestLoadMissingKeyReturnsErrNotFound(t *testing.T) {
	cache := newTestCache(t)
	_, err := cache.Load(context.Background())
	if err != ErrNotFound {
		t.Fatalf("Load on missing key = %v, want ErrNotFound", err)
	}
}

func TestLoadRejectsIncompatibleSchemaVersion(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	if err := cache.Save(ctx, Snapshot{SavedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Corrupt the stored schema version directly through the client.
	cache.client.Set(ctx, cache.key, `{"schema_version":999}`, 0)

	_, err := cache.Load(ctx)
	if err == nil {
		t.Fatalf("Load: want error for incompatible schema version")
	}
}
