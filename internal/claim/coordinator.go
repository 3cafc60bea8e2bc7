// Package claim implements the sole serializing component in the
// matcher: the critical region spanning candidate selection,
// re-verification, the Matched status write, and queue eviction.
// Grounded on a sync.Mutex-guarded critical-section pattern (see
// DESIGN.md): one process-wide mutex, not per-queue, per spec.md §5/§9.
package claim

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/internal/matchengine"
	"github.com/gridmatch/matcher/internal/taskqueue"
	"github.com/gridmatch/matcher/pkg/classad"
	"github.com/gridmatch/matcher/pkg/domain"
)

var log = slog.Default()

// Outcome enumerates a claim attempt's three possible results.
type Outcome int

const (
	OutcomeNoCandidate Outcome = iota
	OutcomeMatched
	OutcomeStale
)

// Result is the coordinator's report for one claim attempt.
type Result struct {
	Outcome Outcome

	JobID   domain.JobID
	Payload domain.JobPayload

	// EvictedJobIDs lists stale jobs the attempt evicted from the
	// queue index before (or instead of) finding a candidate.
	EvictedJobIDs []domain.JobID
}

// Coordinator owns the single exclusion token guarding claims.
type Coordinator struct {
	mu    sync.Mutex
	store jobstore.Store
	log   jobstore.Logger
	index *taskqueue.Index
}

// New builds a Coordinator over a job store, a logging sink, and the
// task-queue index it evicts from.
func New(store jobstore.Store, logger jobstore.Logger, index *taskqueue.Index) *Coordinator {
	return &Coordinator{store: store, log: logger, index: index}
}

// ClaimDirect attempts to claim a specific job by ID, for agent-directed
// matches. It does not fall through to a queue scan on miss — that
// policy lives in the matcher service, not here.
func (c *Coordinator) ClaimDirect(ctx context.Context, jobID domain.JobID, resource *classad.Descriptor) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	attrs, err := c.store.GetJobAttributes(ctx, jobID)
	if err != nil {
		if err == jobstore.ErrNotFound {
			return Result{Outcome: OutcomeNoCandidate}, nil
		}
		return Result{}, err
	}
	if attrs.Status != domain.StatusWaiting {
		c.evictFromIndex(jobID)
		return Result{Outcome: OutcomeStale, EvictedJobIDs: []domain.JobID{jobID}}, nil
	}

	// A Waiting job not present in any queue is admitted-but-unplaced
	// (or already removed); agent-directed requests must see it as
	// NoCandidate rather than claiming it outright (spec.md §7).
	queueID, err := c.store.LookupJobInQueue(ctx, jobID)
	if err != nil {
		if err == jobstore.ErrNotFound {
			return Result{Outcome: OutcomeNoCandidate}, nil
		}
		return Result{}, err
	}
	if queueID == 0 {
		return Result{Outcome: OutcomeNoCandidate}, nil
	}

	jdl, err := c.store.GetJobJDL(ctx, jobID, domain.StatusWaiting)
	if err != nil {
		return Result{}, err
	}
	jobDesc, err := classad.Parse(jdl)
	if err != nil {
		return Result{Outcome: OutcomeNoCandidate}, nil
	}

	m, err := matchengine.Match(jobDesc, resource)
	if err != nil || !m.Sym {
		return Result{Outcome: OutcomeNoCandidate}, nil
	}

	res, err := c.commit(ctx, jobID, attrs, jdl)
	if err != nil {
		return Result{}, err
	}
	if err := c.store.DeleteJobFromQueue(ctx, queueID, jobID); err != nil {
		log.Error("claimDirect: failed to evict claimed job from queue", "job_id", jobID, "error", err)
	}
	c.index.Remove(queueID, jobID)
	return res, nil
}

// Claim scans a single queue under exclusion and claims the first
// symmetrically matching waiting job, evicting every stale entry it
// encounters along the way.
func (c *Coordinator) Claim(ctx context.Context, queueID domain.QueueID, resource *classad.Descriptor) (Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	jobIDs, err := c.store.GetJobsInQueue(ctx, queueID)
	if err != nil {
		return Result{}, err
	}
	if len(jobIDs) == 0 {
		c.deleteEmptyQueue(ctx, queueID)
		return Result{Outcome: OutcomeNoCandidate}, nil
	}

	var evicted []domain.JobID
	for _, jobID := range jobIDs {
		attrs, err := c.store.GetJobAttributes(ctx, jobID)
		if err != nil {
			if err == jobstore.ErrNotFound {
				c.evictJobFromQueue(ctx, queueID, jobID)
				evicted = append(evicted, jobID)
				continue
			}
			log.Error("claim: store error reading job attributes", "job_id", jobID, "error", err)
			continue
		}
		if attrs.Status != domain.StatusWaiting {
			c.evictJobFromQueue(ctx, queueID, jobID)
			evicted = append(evicted, jobID)
			continue
		}

		jdl, err := c.store.GetJobJDL(ctx, jobID, domain.StatusWaiting)
		if err != nil {
			log.Error("claim: store error reading job JDL", "job_id", jobID, "error", err)
			continue
		}
		jobDesc, err := classad.Parse(jdl)
		if err != nil {
			log.Warn("claim: job descriptor failed to parse, skipping", "job_id", jobID, "error", err)
			continue
		}

		m, err := matchengine.Match(jobDesc, resource)
		if err != nil || !m.Sym {
			continue
		}

		// Found the claimed job: evict it from the queue too, correcting
		// the original's loop-variable bug (it must be jobID, the chosen
		// candidate, not whatever the loop last touched).
		res, err := c.commit(ctx, jobID, attrs, jdl)
		if err != nil {
			return Result{}, err
		}
		if err := c.store.DeleteJobFromQueue(ctx, queueID, jobID); err != nil {
			log.Error("claim: failed to evict claimed job from queue", "job_id", jobID, "error", err)
		}
		c.index.Remove(queueID, jobID)
		res.EvictedJobIDs = evicted
		return res, nil
	}

	return Result{Outcome: OutcomeStale, EvictedJobIDs: evicted}, nil
}

func (c *Coordinator) commit(ctx context.Context, jobID domain.JobID, attrs domain.JobAttributes, jdl string) (Result, error) {
	if err := c.store.SetJobStatus(ctx, jobID, domain.StatusMatched, domain.MinorAssigned); err != nil {
		return Result{}, err
	}
	if err := c.log.AddLoggingRecord(ctx, jobID, domain.StatusMatched, domain.MinorAssigned, "Matcher"); err != nil {
		log.Error("claim: failed to write logging record", "job_id", jobID, "error", err)
	}

	optParams, err := c.store.GetJobOptParameters(ctx, jobID)
	if err != nil {
		optParams = nil
	}
	payload := domain.JobPayload{
		JDL:       jdl,
		DN:        attrs.OwnerDN,
		Group:     attrs.OwnerGroup,
		OptParams: optParams,
	}
	return Result{Outcome: OutcomeMatched, JobID: jobID, Payload: payload}, nil
}

func (c *Coordinator) evictJobFromQueue(ctx context.Context, queueID domain.QueueID, jobID domain.JobID) {
	if err := c.store.DeleteJobFromQueue(ctx, queueID, jobID); err != nil {
		log.Error("claim: failed to evict stale job from queue", "job_id", jobID, "queue_id", queueID, "error", err)
	}
	c.index.Remove(queueID, jobID)
}

func (c *Coordinator) evictFromIndex(jobID domain.JobID) {
	if qid, ok := c.index.QueueOf(jobID); ok {
		c.index.Remove(qid, jobID)
	}
}

func (c *Coordinator) deleteEmptyQueue(ctx context.Context, queueID domain.QueueID) {
	if err := c.store.DeleteQueue(ctx, queueID); err != nil {
		log.Error("claim: failed to delete empty queue", "queue_id", queueID, "error", err)
	}
	c.index.RemoveQueue(queueID)
}
