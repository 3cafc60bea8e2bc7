// Package taskqueue implements the derived, reconstructable priority
// index described in spec.md §4.3: a map from queue-id to its shared
// requirements expression, priority, and ordered job membership, kept
// in sync with the job store via eviction-on-encounter rather than
// proactive scanning.
//
// Grounded on internal/jobmanager/job_manager.go's hybrid design: one
// map as the single source of truth plus a secondary ordered slice for
// fast priority-ordered traversal, both guarded by one sync.RWMutex.
package taskqueue

import (
	"sort"
	"sync"

	"github.com/gridmatch/matcher/pkg/classad"
	"github.com/gridmatch/matcher/pkg/domain"
)

// Entry is one queue's cached state: its parsed requirements, priority,
// and member job-ids in traversal order.
type Entry struct {
	QueueID      domain.QueueID
	Requirements classad.Expr
	Priority     int
	JobIDs       []domain.JobID
}

// Index is the in-memory, non-authoritative cache described above. It
// is never the source of truth for job status — every candidate it
// yields must still be re-verified under the claim lock (spec.md §9:
// "the matcher must never assume membership implies Waiting").
type Index struct {
	mu sync.RWMutex

	byQueue map[domain.QueueID]*Entry
	order   []domain.QueueID // queue ids, sorted non-increasing by Priority

	jobQueue map[domain.JobID]domain.QueueID // reverse lookup for eviction
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byQueue:  make(map[domain.QueueID]*Entry),
		jobQueue: make(map[domain.JobID]domain.QueueID),
	}
}

// Rebuild replaces the index wholesale from a fresh listing, as fetched
// from the job store at startup or by the housekeeping sweep. Invalid
// requirements text is dropped without logging — the queue is simply
// absent from the rebuilt index.
func (idx *Index) Rebuild(queues []domain.TaskQueueInfo, jobsByQueue map[domain.QueueID][]domain.JobID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.byQueue = make(map[domain.QueueID]*Entry, len(queues))
	idx.jobQueue = make(map[domain.JobID]domain.QueueID)
	idx.order = idx.order[:0]

	for _, q := range queues {
		expr, err := classad.ParseExpr(q.RequirementsText)
		if err != nil {
			continue
		}
		jobs := jobsByQueue[q.QueueID]
		entry := &Entry{QueueID: q.QueueID, Requirements: expr, Priority: q.Priority, JobIDs: jobs}
		idx.byQueue[q.QueueID] = entry
		idx.order = append(idx.order, q.QueueID)
		for _, j := range jobs {
			idx.jobQueue[j] = q.QueueID
		}
	}

	sort.SliceStable(idx.order, func(i, j int) bool {
		return idx.byQueue[idx.order[i]].Priority > idx.byQueue[idx.order[j]].Priority
	})
}

// Queues returns the cached entries in priority-descending traversal
// order. The returned slice is a snapshot; callers must not mutate it.
func (idx *Index) Queues() []*Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make([]*Entry, 0, len(idx.order))
	for _, qid := range idx.order {
		out = append(out, idx.byQueue[qid])
	}
	return out
}

// QueueOf returns the queue a job is cached under, if any.
func (idx *Index) QueueOf(job domain.JobID) (domain.QueueID, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	qid, ok := idx.jobQueue[job]
	return qid, ok
}

// Remove evicts a single job from a queue's cached membership. This is
// the index-side counterpart of the job store's DeleteJobFromQueue,
// called on every stale encounter and every successful claim.
func (idx *Index) Remove(queue domain.QueueID, job domain.JobID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry, ok := idx.byQueue[queue]
	if !ok {
		return
	}
	for i, id := range entry.JobIDs {
		if id == job {
			entry.JobIDs = append(entry.JobIDs[:i], entry.JobIDs[i+1:]...)
			break
		}
	}
	delete(idx.jobQueue, job)
}

// RemoveQueue drops an entire queue from the cache, mirroring a store
// deleteQueue call on discovery of an empty queue.
func (idx *Index) RemoveQueue(queue domain.QueueID) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if entry, ok := idx.byQueue[queue]; ok {
		for _, j := range entry.JobIDs {
			delete(idx.jobQueue, j)
		}
	}
	delete(idx.byQueue, queue)
	for i, qid := range idx.order {
		if qid == queue {
			idx.order = append(idx.order[:i], idx.order[i+1:]...)
			break
		}
	}
}

// Len reports the number of cached queues, for metrics and status
// reporting.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.byQueue)
}
