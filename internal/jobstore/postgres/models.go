// Package postgres is a gorm.io/gorm-backed jobstore.Store adapter,
// grounded on fulcrumproject-core's gormJobRepository (see
// gorm_repo_job.go, DESIGN.md): a single Updates()+RowsAffected call
// instead of a SELECT-then-UPDATE pair for status writes.
package postgres

import "github.com/gridmatch/matcher/pkg/domain"

// jobModel is the jobs table's gorm mapping.
type jobModel struct {
	ID             int64  `gorm:"column:id;primaryKey"`
	Status         string `gorm:"column:status"`
	Minor          string `gorm:"column:minor_status"`
	SystemPriority int    `gorm:"column:system_priority"`
	OwnerDN        string `gorm:"column:owner_dn"`
	OwnerGroup     string `gorm:"column:owner_group"`
	JDL            string `gorm:"column:jdl"`
	QueueID        int64  `gorm:"column:queue_id"` // 0 if unqueued
}

func (jobModel) TableName() string { return "jobs" }

func (m jobModel) attributes() domain.JobAttributes {
	return domain.JobAttributes{
		ID:             domain.JobID(m.ID),
		Status:         domain.JobStatus(m.Status),
		SystemPriority: m.SystemPriority,
		OwnerDN:        m.OwnerDN,
		OwnerGroup:     m.OwnerGroup,
	}
}

// jobOptParamModel is one key/value row of a job's optional parameters.
type jobOptParamModel struct {
	JobID int64  `gorm:"column:job_id;primaryKey"`
	Key   string `gorm:"column:key;primaryKey"`
	Value string `gorm:"column:value"`
}

func (jobOptParamModel) TableName() string { return "job_opt_parameters" }

// taskQueueModel is the task_queues table's gorm mapping.
type taskQueueModel struct {
	ID           int64  `gorm:"column:id;primaryKey"`
	Priority     int    `gorm:"column:priority"`
	Requirements string `gorm:"column:requirements"`
}

func (taskQueueModel) TableName() string { return "task_queues" }

func (m taskQueueModel) info() domain.TaskQueueInfo {
	return domain.TaskQueueInfo{QueueID: domain.QueueID(m.ID), Priority: m.Priority, RequirementsText: m.Requirements}
}

// siteMaskModel is one row of the active site mask.
type siteMaskModel struct {
	Site  string `gorm:"column:site;primaryKey"`
	State string `gorm:"column:state;primaryKey"`
}

func (siteMaskModel) TableName() string { return "site_mask" }

// loggingRecordModel is one row of the job logging database.
type loggingRecordModel struct {
	ID     int64  `gorm:"column:id;primaryKey;autoIncrement"`
	JobID  int64  `gorm:"column:job_id"`
	Status string `gorm:"column:status"`
	Minor  string `gorm:"column:minor_status"`
	Source string `gorm:"column:source"`
}

func (loggingRecordModel) TableName() string { return "job_logging_records" }
