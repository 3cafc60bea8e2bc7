package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/gridmatch/matcher/internal/jobstore"
	"github.com/gridmatch/matcher/pkg/domain"
)

// Store is a gorm.io/gorm-backed implementation of jobstore.Store and
// jobstore.Logger, intended as the production job database adapter
// behind the in-memory reference used by tests and the demo binary.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) GetSiteMask(ctx context.Context, state string) (domain.SiteMask, error) {
	var rows []siteMaskModel
	if err := s.db.WithContext(ctx).Where("state = ?", state).Find(&rows).Error; err != nil {
		return nil, err
	}
	sites := make([]string, len(rows))
	for i, r := range rows {
		sites[i] = r.Site
	}
	return domain.NewSiteMask(sites), nil
}

func (s *Store) GetTaskQueues(ctx context.Context) ([]domain.TaskQueueInfo, error) {
	var rows []taskQueueModel
	if err := s.db.WithContext(ctx).Order("priority DESC, id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]domain.TaskQueueInfo, len(rows))
	for i, r := range rows {
		out[i] = r.info()
	}
	return out, nil
}

// GetJobsInQueue returns queue membership ordered by id, the closest
// proxy to insertion order available without a dedicated sequence
// column.
func (s *Store) GetJobsInQueue(ctx context.Context, queue domain.QueueID) ([]domain.JobID, error) {
	var rows []jobModel
	err := s.db.WithContext(ctx).
		Select("id").
		Where("queue_id = ?", int64(queue)).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.JobID, len(rows))
	for i, r := range rows {
		out[i] = domain.JobID(r.ID)
	}
	return out, nil
}

func (s *Store) GetJobJDL(ctx context.Context, job domain.JobID, status domain.JobStatus) (string, error) {
	var m jobModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(job)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", jobstore.ErrNotFound
	}
	if err != nil {
		return "", err
	}
	if status != "" && domain.JobStatus(m.Status) != status {
		return "", nil
	}
	return m.JDL, nil
}

func (s *Store) GetJobAttributes(ctx context.Context, job domain.JobID) (domain.JobAttributes, error) {
	var m jobModel
	err := s.db.WithContext(ctx).Where("id = ?", int64(job)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.JobAttributes{}, jobstore.ErrNotFound
	}
	if err != nil {
		return domain.JobAttributes{}, err
	}
	return m.attributes(), nil
}

func (s *Store) GetJobOptParameters(ctx context.Context, job domain.JobID) (map[string]string, error) {
	var rows []jobOptParamModel
	if err := s.db.WithContext(ctx).Where("job_id = ?", int64(job)).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Value
	}
	return out, nil
}

// SetJobStatus writes status and minor status in one Updates() call
// filtered by job id, and reports ErrNotFound when RowsAffected is zero.
// The update does not check the job's current status, so it overwrites
// whatever status a concurrent writer stored.
func (s *Store) SetJobStatus(ctx context.Context, job domain.JobID, status domain.JobStatus, minor string) error {
	result := s.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ?", int64(job)).
		Updates(map[string]interface{}{"status": string(status), "minor_status": minor})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return jobstore.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteJobFromQueue(ctx context.Context, queue domain.QueueID, job domain.JobID) error {
	return s.db.WithContext(ctx).
		Model(&jobModel{}).
		Where("id = ? AND queue_id = ?", int64(job), int64(queue)).
		Update("queue_id", 0).Error
}

func (s *Store) DeleteQueue(ctx context.Context, queue domain.QueueID) error {
	return s.db.WithContext(ctx).Where("id = ?", int64(queue)).Delete(&taskQueueModel{}).Error
}

func (s *Store) LookupJobInQueue(ctx context.Context, job domain.JobID) (domain.QueueID, error) {
	var m jobModel
	err := s.db.WithContext(ctx).Select("queue_id").Where("id = ?", int64(job)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, jobstore.ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return domain.QueueID(m.QueueID), nil
}

func (s *Store) GetTaskQueueReport(ctx context.Context, queues []domain.QueueID) (domain.TaskQueueReport, error) {
	ids := make([]int64, len(queues))
	for i, q := range queues {
		ids[i] = int64(q)
	}
	var rows []taskQueueModel
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return domain.TaskQueueReport{}, err
	}
	report := domain.TaskQueueReport{}
	for _, r := range rows {
		report.Queues = append(report.Queues, r.info())
	}
	return report, nil
}

// AddLoggingRecord implements jobstore.Logger by inserting a row into
// the job logging database.
func (s *Store) AddLoggingRecord(ctx context.Context, job domain.JobID, status domain.JobStatus, minor, source string) error {
	return s.db.WithContext(ctx).Create(&loggingRecordModel{
		JobID:  int64(job),
		Status: string(status),
		Minor:  minor,
		Source: source,
	}).Error
}

var (
	_ jobstore.Store  = (*Store)(nil)
	_ jobstore.Logger = (*Store)(nil)
)
