package taskqueue

import (
	"testing"

	"github.com/gridmatch/matcher/pkg/domain"
)

func TestRebuildOrdersByPriorityDescending(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]domain.TaskQueueInfo{
		{QueueID: 1, RequirementsText: "true", Priority: 5},
		{QueueID: 2, RequirementsText: "true", Priority: 10},
		{QueueID: 3, RequirementsText: "true", Priority: 1},
	}, map[domain.QueueID][]domain.JobID{
		1: {100}, 2: {200}, 3: {300},
	})

	queues := idx.Queues()
	if len(queues) != 3 {
		t.Fatalf("got %d queues, want 3", len(queues))
	}
	got := []domain.QueueID{queues[0].QueueID, queues[1].QueueID, queues[2].QueueID}
	want := []domain.QueueID{2, 1, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("traversal order = %v, want %v", got, want)
		}
	}
}

func TestRebuildDropsInvalidRequirements(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]domain.TaskQueueInfo{
		{QueueID: 1, RequirementsText: "((( not valid", Priority: 5},
		{QueueID: 2, RequirementsText: "true", Priority: 1},
	}, nil)
	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 (invalid queue dropped)", idx.Len())
	}
}

func TestRemoveEvictsJobAndReverseLookup(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]domain.TaskQueueInfo{
		{QueueID: 1, RequirementsText: "true", Priority: 5},
	}, map[domain.QueueID][]domain.JobID{1: {100, 200}})

	idx.Remove(1, 100)

	if _, ok := idx.QueueOf(100); ok {
		t.Fatal("expected job 100 to be evicted from reverse lookup")
	}
	entry := idx.Queues()[0]
	if len(entry.JobIDs) != 1 || entry.JobIDs[0] != 200 {
		t.Fatalf("queue membership after Remove = %v, want [200]", entry.JobIDs)
	}
}

func TestRemoveQueueDropsEntryAndOrdering(t *testing.T) {
	idx := NewIndex()
	idx.Rebuild([]domain.TaskQueueInfo{
		{QueueID: 1, RequirementsText: "true", Priority: 5},
		{QueueID: 2, RequirementsText: "true", Priority: 10},
	}, map[domain.QueueID][]domain.JobID{1: {100}, 2: {200}})

	idx.RemoveQueue(2)

	if idx.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", idx.Len())
	}
	if _, ok := idx.QueueOf(200); ok {
		t.Fatal("expected job 200's reverse lookup to be cleared with its queue")
	}
}
