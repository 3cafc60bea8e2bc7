package domain

// QueueID identifies a task queue — a bucket of jobs sharing one
// Requirements expression and one priority.
type QueueID int64

// TaskQueueInfo is the listing entry returned by the job store for a
// single queue: its shared requirements text and priority, but not its
// job membership (fetched separately via jobsInQueue).
type TaskQueueInfo struct {
	QueueID          QueueID
	RequirementsText string
	Priority         int
}

// TaskQueueReport is the aggregated, read-only view returned by
// checkForJobs for a set of matching queues. Its shape is owned by the
// job store; the matcher only forwards it.
type TaskQueueReport struct {
	Queues []TaskQueueInfo
}
