// Package domain defines the shared value types used across the matcher:
// jobs, task queues, site masks, and the payload handed back to a matched
// resource. These are plain value types; behavior lives in the packages
// that consume them (matchengine, taskqueue, claim, matcher).
package domain

// JobID uniquely identifies a job in the authoritative job store. Job
// stores mint positive integers; zero is used as a "not found" sentinel
// by lookupJobInQueue-style calls.
type JobID int64

// JobStatus is the job store's status string for a job. The matcher only
// distinguishes Waiting from everything else; other values (Running,
// Done, Failed, ...) are opaque and treated uniformly as "not waiting".
type JobStatus string

const (
	StatusWaiting JobStatus = "Waiting"
	StatusMatched JobStatus = "Matched"
)

// MinorStatus accompanies a status write. The matcher only ever writes
// Assigned alongside Matched.
const MinorAssigned = "Assigned"

// JobAttributes is the subset of a job's record the matcher reads before
// attempting a claim.
type JobAttributes struct {
	ID             JobID
	Status         JobStatus
	SystemPriority int // read, intentionally unused for ordering; queue order is GetJobsInQueue's
	OwnerDN        string
	OwnerGroup     string
}

// JobPayload is returned to a resource on a successful claim. JDL, DN,
// and Group are always present; OptParams are merged at the top level
// and lose on key collision with JDL/DN/Group.
type JobPayload struct {
	JDL       string
	DN        string
	Group     string
	OptParams map[string]string
}

// Merge flattens the payload into a single string-keyed map for transport,
// with JDL/DN/Group winning any collision against OptParams.
func (p JobPayload) Merge() map[string]string {
	out := make(map[string]string, len(p.OptParams)+3)
	for k, v := range p.OptParams {
		out[k] = v
	}
	out["JDL"] = p.JDL
	out["DN"] = p.DN
	out["Group"] = p.Group
	return out
}
