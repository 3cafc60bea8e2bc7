// Package matcher implements the RPC surface described in spec.md §4.5:
// requestJob and checkForJobs. Grounded on the original matcher's
// export_requestJob/export_checkForJobs control flow (resource parse ->
// site mask -> queue scan -> claim), reimplemented to correct both
// confirmed source bugs flagged in spec.md §9: no classAdAgent/
// agentClassAd typo, and eviction always targets the claimed jobID, not
// a stale loop variable (see internal/claim/coordinator.go).
package matcher

import (
	"context"
	"log/slog"

	"github.com/gridmatch/matcher/internal/claim"
	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/internal/sitemask"
	"github.com/gridmatch/matcher/internal/taskqueue"
	"github.com/gridmatch/matcher/pkg/classad"
	"github.com/gridmatch/matcher/pkg/domain"
)

var log = slog.Default()

// Outcome enumerates requestJob/checkForJobs's four possible results:
// success (a payload, or a possibly empty report), no match, an
// unparseable resource descriptor, or an internal error.
type Outcome int

const (
	OutcomeMatched Outcome = iota
	OutcomeNoMatch
	OutcomeIllegalResource
	OutcomeInternal
)

// RequestJobResult is requestJob's result.
type RequestJobResult struct {
	Outcome Outcome
	Payload domain.JobPayload
	// Message carries the agent's site on NoMatch, or a human-readable
	// error on IllegalResource/Internal.
	Message string
}

// CheckForJobsResult is checkForJobs's result. It never claims or
// mutates state.
type CheckForJobsResult struct {
	Outcome Outcome
	Report  domain.TaskQueueReport
	Message string
}

// Metrics is the subset of internal/metrics.Collector the service
// drives; kept as a narrow interface here so tests can stub it.
type Metrics interface {
	RecordMatch()
	RecordNoMatch()
	RecordEviction(n int)
}

// Service ties the index, claim coordinator, and job store together
// into the public matcher surface.
type Service struct {
	store       jobstore.Store
	index       *taskqueue.Index
	coordinator *claim.Coordinator
	metrics     Metrics
}

// New builds a Service. metrics may be nil.
func New(store jobstore.Store, index *taskqueue.Index, coordinator *claim.Coordinator, metrics Metrics) *Service {
	return &Service{store: store, index: index, coordinator: coordinator, metrics: metrics}
}

// RequestJob implements spec.md §4.5's requestJob algorithm.
func (s *Service) RequestJob(ctx context.Context, resourceJDL string) RequestJobResult {
	resource, err := classad.Parse(resourceJDL)
	if err != nil {
		return RequestJobResult{Outcome: OutcomeIllegalResource, Message: err.Error()}
	}
	if _, ok := resource.GetAttribute("Requirements"); !ok {
		resource.InsertAttribute("Requirements", classad.ExprValue(classad.BoolLit(true)))
	}

	agentSite := ""
	if v, ok := resource.GetAttribute("Site"); ok && v.Kind == classad.KindString {
		agentSite = v.Str
	}

	if jobID, ok := classad.FindJobIDHint(resource.Requirements()); ok {
		res, err := s.coordinator.ClaimDirect(ctx, domain.JobID(jobID), resource)
		if err != nil {
			log.Error("requestJob: claimDirect failed", "job_id", jobID, "error", err)
			return RequestJobResult{Outcome: OutcomeInternal, Message: "internal error"}
		}
		if res.Outcome == claim.OutcomeMatched {
			s.recordMatch()
			return RequestJobResult{Outcome: OutcomeMatched, Payload: res.Payload}
		}
		// Agent-directed miss never falls through to the general scan —
		// spec.md §9 preserves this as policy, not a bug.
		s.recordNoMatch()
		return RequestJobResult{Outcome: OutcomeNoMatch, Message: agentSite}
	}

	mask, err := s.store.GetSiteMask(ctx, "Active")
	if err != nil {
		log.Error("requestJob: failed to fetch site mask", "error", err)
		return RequestJobResult{Outcome: OutcomeInternal, Message: "internal error"}
	}

	for _, entry := range s.index.Queues() {
		if !sitemask.Eligible(entry.Requirements, agentSite, mask) {
			continue
		}

		qDesc := classad.NewDescriptor()
		qDesc.Set("Requirements", classad.ExprValue(entry.Requirements))
		ltr, _ := classad.EvaluateRequirements(qDesc, resource)
		if !ltr {
			continue
		}

		res, err := s.coordinator.Claim(ctx, entry.QueueID, resource)
		if err != nil {
			log.Error("requestJob: claim failed, continuing scan", "queue_id", entry.QueueID, "error", err)
			continue
		}
		if len(res.EvictedJobIDs) > 0 {
			// The coordinator already evicted these from the index as it
			// encountered them; only the metric is this layer's job.
			s.recordEviction(len(res.EvictedJobIDs))
		}
		if res.Outcome == claim.OutcomeMatched {
			s.recordMatch()
			return RequestJobResult{Outcome: OutcomeMatched, Payload: res.Payload}
		}
	}

	s.recordNoMatch()
	return RequestJobResult{Outcome: OutcomeNoMatch, Message: agentSite}
}

// CheckForJobs implements spec.md §4.5's checkForJobs: a read-only query
// that never claims or mutates state.
func (s *Service) CheckForJobs(ctx context.Context, resourceJDL string) CheckForJobsResult {
	resource, err := classad.Parse(resourceJDL)
	if err != nil {
		return CheckForJobsResult{Outcome: OutcomeIllegalResource, Message: err.Error()}
	}

	var matching []domain.QueueID
	for _, entry := range s.index.Queues() {
		qDesc := classad.NewDescriptor()
		qDesc.Set("Requirements", classad.ExprValue(entry.Requirements))
		accepts, _ := classad.EvaluateRequirements(qDesc, resource)
		if accepts {
			matching = append(matching, entry.QueueID)
		}
	}
	if len(matching) == 0 {
		// spec.md §4.5: checkForJobs returns an empty list on no match, a
		// success envelope, never requestJob's NoMatch failure envelope.
		return CheckForJobsResult{Outcome: OutcomeMatched}
	}

	report, err := s.store.GetTaskQueueReport(ctx, matching)
	if err != nil {
		log.Error("checkForJobs: failed to fetch queue report", "error", err)
		return CheckForJobsResult{Outcome: OutcomeInternal, Message: "internal error"}
	}
	return CheckForJobsResult{Outcome: OutcomeMatched, Report: report}
}

func (s *Service) recordMatch() {
	if s.metrics != nil {
		s.metrics.RecordMatch()
	}
}

func (s *Service) recordNoMatch() {
	if s.metrics != nil {
		s.metrics.RecordNoMatch()
	}
}

func (s *Service) recordEviction(n int) {
	if s.metrics != nil {
		s.metrics.RecordEviction(n)
	}
}
