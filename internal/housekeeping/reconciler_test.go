package housekeeping

import (
	"context"
	"testing"
	"time"

	"github.com/gridmatch/matcher/internal/jobstore/memory"
	"github.com/gridmatch/matcher/internal/taskqueue"
	"github.com/gridmatch/matcher/internal/taskqueue/rediscache"
	"github.com/gridmatch/matcher/pkg/domain"
)

type fakeSnapshotter struct {
	saved rediscache.Snapshot
	calls int
}

func (f *fakeSnapshotter) Save(ctx context.Context, snap rediscache.Snapshot) error {
	f.saved = snap
	f.calls++
	return nil
}

func TestSweepDropsClaimedJobsFromIndex(t *testing.T) {
	store := memory.New()
	store.PutQueue(domain.TaskQueueInfo{QueueID: 1, Priority: 1, RequirementsText: `true`})
	store.PutJob(domain.JobAttributes{ID: 1, Status: domain.StatusWaiting}, `[ Requirements = true; ]`, nil, 1)
	store.PutJob(domain.JobAttributes{ID: 2, Status: domain.StatusWaiting}, `[ Requirements = true; ]`, nil, 1)

	index := taskqueue.NewIndex()
	queues, _ := store.GetTaskQueues(context.Background())
	jobsByQueue := map[domain.QueueID][]domain.JobID{1: {1, 2}}
	index.Rebuild(queues, jobsByQueue)

	// job 1 gets claimed behind the index's back
	if err := store.SetJobStatus(context.Background(), 1, domain.StatusMatched, domain.MinorAssigned); err != nil {
		t.Fatalf("SetJobStatus: %v", err)
	}

	r, err := New(store, index, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.sweep()

	if _, ok := index.QueueOf(1); ok {
		t.Fatalf("job 1 should have been dropped from the index by the sweep")
	}
	if _, ok := index.QueueOf(2); !ok {
		t.Fatalf("job 2 should still be present in the index")
	}
}

func TestSweepSavesWarmStartSnapshot(t *testing.T) {
	store := memory.New()
	store.PutQueue(domain.TaskQueueInfo{QueueID: 1, Priority: 1, RequirementsText: `true`})
	store.PutJob(domain.JobAttributes{ID: 1, Status: domain.StatusWaiting}, `[ Requirements = true; ]`, nil, 1)

	index := taskqueue.NewIndex()
	cache := &fakeSnapshotter{}

	r, err := New(store, index, cache)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.sweep()

	if cache.calls != 1 {
		t.Fatalf("Save calls = %d, want 1", cache.calls)
	}
	if len(cache.saved.JobsByQueue[1]) != 1 || cache.saved.JobsByQueue[1][0] != 1 {
		t.Fatalf("saved snapshot jobs for queue 1 = %v, want [1]", cache.saved.JobsByQueue[1])
	}
}

func TestStartAndStop(t *testing.T) {
	store := memory.New()
	index := taskqueue.NewIndex()

	r, err := New(store, index, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := r.Start(time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
