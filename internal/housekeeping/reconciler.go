// Package housekeeping runs the optional proactive reconciliation sweep
// over the task-queue index, grounded on fulcrumproject-core's
// gocron.Scheduler/NewJob(gocron.DurationJob(...))/WithSingletonMode
// lifecycle (see pkg/app/worker.go, DESIGN.md). It is a pure
// accelerator: the lazy eviction built into the claim coordinator
// already guarantees correctness on every request, so a missed or
// delayed sweep changes latency, never outcomes.
package housekeeping

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/internal/taskqueue"
	"github.com/gridmatch/matcher/internal/taskqueue/rediscache"
	"github.com/gridmatch/matcher/pkg/domain"
)

var log = slog.Default()

// Snapshotter is the subset of rediscache.Cache the reconciler saves
// warm-start snapshots to after each sweep. Narrow interface so tests
// can stub it without a live Redis instance.
type Snapshotter interface {
	Save(ctx context.Context, snap rediscache.Snapshot) error
}

// Reconciler periodically rebuilds the in-memory task-queue index from
// the job store, dropping membership that has gone stale (claimed,
// vanished, or reassigned jobs) since the index was last built.
type Reconciler struct {
	store     jobstore.Store
	index     *taskqueue.Index
	scheduler gocron.Scheduler
	cache     Snapshotter // nil disables warm-start snapshotting
}

// New builds a Reconciler over a job store and the index it reconciles.
// cache may be nil, disabling warm-start snapshot persistence.
func New(store jobstore.Store, index *taskqueue.Index, cache Snapshotter) (*Reconciler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Reconciler{store: store, index: index, scheduler: scheduler, cache: cache}, nil
}

// Start schedules the sweep to run every interval and starts the
// scheduler. It does not run a sweep immediately; the index is assumed
// already built at startup.
func (r *Reconciler) Start(interval time.Duration) error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(r.sweep),
		gocron.WithName("task_queue_reconciliation"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		log.Error("housekeeping: failed to schedule reconciliation job", "error", err)
		return err
	}
	r.scheduler.Start()
	return nil
}

// Stop shuts the scheduler down, waiting for any in-flight sweep to
// finish.
func (r *Reconciler) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *Reconciler) sweep() {
	ctx := context.Background()

	queues, err := r.store.GetTaskQueues(ctx)
	if err != nil {
		log.Error("housekeeping: failed to list task queues", "error", err)
		return
	}

	jobsByQueue := make(map[domain.QueueID][]domain.JobID, len(queues))
	dropped := 0
	for _, q := range queues {
		jobIDs, err := r.store.GetJobsInQueue(ctx, q.QueueID)
		if err != nil {
			log.Error("housekeeping: failed to list queue members", "queue_id", q.QueueID, "error", err)
			continue
		}
		var waiting []domain.JobID
		for _, jobID := range jobIDs {
			attrs, err := r.store.GetJobAttributes(ctx, jobID)
			if err != nil || attrs.Status != domain.StatusWaiting {
				dropped++
				continue
			}
			waiting = append(waiting, jobID)
		}
		jobsByQueue[q.QueueID] = waiting
	}

	r.index.Rebuild(queues, jobsByQueue)
	if dropped > 0 {
		log.Info("housekeeping: reconciliation dropped stale queue members", "count", dropped)
	}

	if r.cache != nil {
		snap := rediscache.Snapshot{Queues: queues, JobsByQueue: jobsByQueue}
		if err := r.cache.Save(ctx, snap); err != nil {
			log.Warn("housekeeping: failed to save warm-start snapshot", "error", err)
		}
	}
}
