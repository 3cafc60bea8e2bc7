// Package memory provides a mutex-protected in-memory Store/Logger pair,
// used by tests and by the standalone/demo deployment mode. Grounded on
// an in-memory test-double convention (see DESIGN.md): a plain map
// guarded by one RWMutex, no secondary indexes. This store is never the
// performance-critical path; the task-queue index in front of it is.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/pkg/domain"
)

type jobRecord struct {
	attrs      domain.JobAttributes
	jdl        string
	optParams  map[string]string
	queue      domain.QueueID // 0 if not queued
}

type queueRecord struct {
	info domain.TaskQueueInfo
	jobs []domain.JobID
}

// Store is an in-memory implementation of jobstore.Store and
// jobstore.Logger.
type Store struct {
	mu sync.RWMutex

	jobs   map[domain.JobID]*jobRecord
	queues map[domain.QueueID]*queueRecord
	mask   domain.SiteMask
	log    []logRecord
}

type logRecord struct {
	Job    domain.JobID
	Status domain.JobStatus
	Minor  string
	Source string
}

// New returns an empty store with an empty site mask: no site is
// allowed until SetSiteMask is called.
func New() *Store {
	return &Store{
		jobs:   make(map[domain.JobID]*jobRecord),
		queues: make(map[domain.QueueID]*queueRecord),
		mask:   domain.SiteMask{},
	}
}

// SetSiteMask replaces the active mask (test/demo seeding helper).
func (s *Store) SetSiteMask(sites []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mask = domain.NewSiteMask(sites)
}

// PutJob seeds a job and, if queue is non-zero, places it at the end of
// that queue's member list (test/demo seeding helper).
func (s *Store) PutJob(attrs domain.JobAttributes, jdl string, optParams map[string]string, queue domain.QueueID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[attrs.ID] = &jobRecord{attrs: attrs, jdl: jdl, optParams: optParams, queue: queue}
	if queue != 0 {
		q, ok := s.queues[queue]
		if !ok {
			return
		}
		q.jobs = append(q.jobs, attrs.ID)
	}
}

// PutQueue seeds a queue's listing entry (test/demo seeding helper).
func (s *Store) PutQueue(info domain.TaskQueueInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[info.QueueID] = &queueRecord{info: info}
}

func (s *Store) GetSiteMask(ctx context.Context, state string) (domain.SiteMask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(domain.SiteMask, len(s.mask))
	for k := range s.mask {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *Store) GetTaskQueues(ctx context.Context) ([]domain.TaskQueueInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.TaskQueueInfo, 0, len(s.queues))
	for _, q := range s.queues {
		out = append(out, q.info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out, nil
}

func (s *Store) GetJobsInQueue(ctx context.Context, queue domain.QueueID) ([]domain.JobID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.queues[queue]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	out := make([]domain.JobID, len(q.jobs))
	copy(out, q.jobs)
	return out, nil
}

func (s *Store) GetJobJDL(ctx context.Context, job domain.JobID, status domain.JobStatus) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[job]
	if !ok {
		return "", jobstore.ErrNotFound
	}
	if status != "" && j.attrs.Status != status {
		return "", nil
	}
	return j.jdl, nil
}

func (s *Store) GetJobAttributes(ctx context.Context, job domain.JobID) (domain.JobAttributes, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[job]
	if !ok {
		return domain.JobAttributes{}, jobstore.ErrNotFound
	}
	return j.attrs, nil
}

func (s *Store) GetJobOptParameters(ctx context.Context, job domain.JobID) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[job]
	if !ok {
		return nil, jobstore.ErrNotFound
	}
	out := make(map[string]string, len(j.optParams))
	for k, v := range j.optParams {
		out[k] = v
	}
	return out, nil
}

func (s *Store) SetJobStatus(ctx context.Context, job domain.JobID, status domain.JobStatus, minor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[job]
	if !ok {
		return jobstore.ErrNotFound
	}
	j.attrs.Status = status
	return nil
}

func (s *Store) DeleteJobFromQueue(ctx context.Context, queue domain.QueueID, job domain.JobID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.queues[queue]
	if !ok {
		return jobstore.ErrNotFound
	}
	for i, id := range q.jobs {
		if id == job {
			q.jobs = append(q.jobs[:i], q.jobs[i+1:]...)
			break
		}
	}
	if jr, ok := s.jobs[job]; ok && jr.queue == queue {
		jr.queue = 0
	}
	return nil
}

func (s *Store) DeleteQueue(ctx context.Context, queue domain.QueueID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, queue)
	return nil
}

func (s *Store) LookupJobInQueue(ctx context.Context, job domain.JobID) (domain.QueueID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[job]
	if !ok {
		return 0, jobstore.ErrNotFound
	}
	return j.queue, nil
}

func (s *Store) GetTaskQueueReport(ctx context.Context, queues []domain.QueueID) (domain.TaskQueueReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report := domain.TaskQueueReport{}
	for _, qid := range queues {
		if q, ok := s.queues[qid]; ok {
			report.Queues = append(report.Queues, q.info)
		}
	}
	return report, nil
}

// AddLoggingRecord implements jobstore.Logger by appending to an
// in-memory slice. Tests can inspect it via Log().
func (s *Store) AddLoggingRecord(ctx context.Context, job domain.JobID, status domain.JobStatus, minor, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.log = append(s.log, logRecord{Job: job, Status: status, Minor: minor, Source: source})
	return nil
}

// Log returns a copy of the recorded logging records, for test
// assertions.
func (s *Store) Log() []logRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]logRecord, len(s.log))
	copy(out, s.log)
	return out
}

var (
	_ jobstore.Store  = (*Store)(nil)
	_ jobstore.Logger = (*Store)(nil)
)
