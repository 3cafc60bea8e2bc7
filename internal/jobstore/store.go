// Package jobstore defines the external collaborator interfaces the
// matcher consumes: the authoritative job database and the job-history
// logging sink (spec.md §6). Implementations live in sibling packages
// (jobstore/memory, jobstore/postgres); this package holds only the
// contracts.
package jobstore

import (
	"context"
	"errors"

	"github.com/gridmatch/matcher/pkg/domain"
)

// ErrNotFound is returned by Store methods when a job or queue has
// vanished between listing and lookup — an expected, racy condition the
// matcher treats as a stale entry, not a failure.
var ErrNotFound = errors.New("jobstore: not found")

// Store is the authoritative job database, queried for attributes,
// JDL, status, and site mask, and written to on a successful claim.
// Every method may return a StoreError-flavored error; the matcher's
// policy for handling that is described in spec.md §7.
type Store interface {
	// GetSiteMask returns the set of sites currently permitted to
	// receive work, for the given state (conventionally "Active").
	GetSiteMask(ctx context.Context, state string) (domain.SiteMask, error)

	// GetTaskQueues lists every queue, ordered non-increasing by
	// priority.
	GetTaskQueues(ctx context.Context) ([]domain.TaskQueueInfo, error)

	// GetJobsInQueue returns queue membership in the job store's
	// canonical order (first-match wins during traversal).
	GetJobsInQueue(ctx context.Context, queue domain.QueueID) ([]domain.JobID, error)

	// GetJobJDL returns a job's descriptor text. If status is
	// non-empty, the returned text is empty unless the job's current
	// status equals it.
	GetJobJDL(ctx context.Context, job domain.JobID, status domain.JobStatus) (string, error)

	// GetJobAttributes returns the attributes the matcher reads for a
	// job (status, system priority, owner DN and group).
	GetJobAttributes(ctx context.Context, job domain.JobID) (domain.JobAttributes, error)

	// GetJobOptParameters returns a job's optional parameter mapping.
	GetJobOptParameters(ctx context.Context, job domain.JobID) (map[string]string, error)

	// SetJobStatus writes a new status/minor-status pair.
	SetJobStatus(ctx context.Context, job domain.JobID, status domain.JobStatus, minor string) error

	// DeleteJobFromQueue evicts a job from a queue's membership list
	// without touching the job's record.
	DeleteJobFromQueue(ctx context.Context, queue domain.QueueID, job domain.JobID) error

	// DeleteQueue removes an empty queue.
	DeleteQueue(ctx context.Context, queue domain.QueueID) error

	// LookupJobInQueue returns the queue a job currently belongs to, or
	// 0 if it belongs to none.
	LookupJobInQueue(ctx context.Context, job domain.JobID) (domain.QueueID, error)

	// GetTaskQueueReport returns the aggregated report for a set of
	// queues, for checkForJobs.
	GetTaskQueueReport(ctx context.Context, queues []domain.QueueID) (domain.TaskQueueReport, error)
}

// Logger is the job-history logging sink: one record per status
// transition the matcher performs.
type Logger interface {
	AddLoggingRecord(ctx context.Context, job domain.JobID, status domain.JobStatus, minor, source string) error
}
