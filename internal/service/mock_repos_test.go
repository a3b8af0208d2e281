package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
	pkgerrors "github.com/unibeninterns/ubjh-server-sub000/pkg/errors"
)

// ── Mock FacultyRepository ──

type mockFacultyRepo struct {
	faculties map[string]*model.Faculty
}

func newMockFacultyRepo() *mockFacultyRepo {
	return &mockFacultyRepo{faculties: make(map[string]*model.Faculty)}
}

func (m *mockFacultyRepo) Create(_ context.Context, faculty *model.Faculty) error {
	if faculty.FacultyID == "" {
		faculty.FacultyID = "fac-" + faculty.Name
	}
	m.faculties[faculty.FacultyID] = faculty
	return nil
}

func (m *mockFacultyRepo) GetByID(_ context.Context, id string) (*model.Faculty, error) {
	if f, ok := m.faculties[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) GetByName(_ context.Context, name string) (*model.Faculty, error) {
	for _, f := range m.faculties {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFacultyRepo) List(_ context.Context) ([]model.Faculty, error) {
	result := make([]model.Faculty, 0, len(m.faculties))
	for _, f := range m.faculties {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ── Mock ReviewerRepository ──

type mockReviewerRepo struct {
	reviewers map[string]*model.Reviewer
}

func newMockReviewerRepo() *mockReviewerRepo {
	return &mockReviewerRepo{reviewers: make(map[string]*model.Reviewer)}
}

func (m *mockReviewerRepo) Create(_ context.Context, reviewer *model.Reviewer) error {
	if reviewer.ReviewerID == "" {
		reviewer.ReviewerID = "rv-" + reviewer.Email
	}
	m.reviewers[reviewer.ReviewerID] = reviewer
	return nil
}

func (m *mockReviewerRepo) GetByID(_ context.Context, id string) (*model.Reviewer, error) {
	if r, ok := m.reviewers[id]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewerRepo) GetByEmail(_ context.Context, email string) (*model.Reviewer, error) {
	for _, r := range m.reviewers {
		if r.Email == email {
			return r, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewerRepo) Update(_ context.Context, reviewer *model.Reviewer) error {
	m.reviewers[reviewer.ReviewerID] = reviewer
	return nil
}

func (m *mockReviewerRepo) ListWithFilters(_ context.Context, filters *repository.ReviewerListFilters, offset, limit int) ([]model.Reviewer, int64, error) {
	var all []model.Reviewer
	for _, r := range m.reviewers {
		if filters != nil {
			if filters.FacultyID != "" && r.FacultyID != filters.FacultyID {
				continue
			}
			if filters.InvitationStatus != "" && r.InvitationStatus != filters.InvitationStatus {
				continue
			}
			if filters.Keyword != "" &&
				!strings.Contains(r.Name, filters.Keyword) &&
				!strings.Contains(r.Email, filters.Keyword) {
				continue
			}
		}
		all = append(all, *r)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ReviewerID < all[j].ReviewerID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockReviewerRepo) ListSelectableByFaculties(_ context.Context, facultyIDs []string) ([]model.Reviewer, error) {
	idSet := make(map[string]bool, len(facultyIDs))
	for _, id := range facultyIDs {
		idSet[id] = true
	}
	var result []model.Reviewer
	for _, r := range m.reviewers {
		if idSet[r.FacultyID] && r.Selectable() {
			result = append(result, *r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ReviewerID < result[j].ReviewerID })
	return result, nil
}

// ── Mock SubjectRepository ──

type mockSubjectRepo struct {
	subjects map[string]*model.Subject
}

func newMockSubjectRepo() *mockSubjectRepo {
	return &mockSubjectRepo{subjects: make(map[string]*model.Subject)}
}

func (m *mockSubjectRepo) Create(_ context.Context, subject *model.Subject) error {
	if subject.SubjectID == "" {
		subject.SubjectID = "sub-" + subject.Title
	}
	m.subjects[subject.SubjectID] = subject
	return nil
}

func (m *mockSubjectRepo) GetByID(_ context.Context, id string) (*model.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubjectRepo) Update(_ context.Context, subject *model.Subject) error {
	stored, ok := m.subjects[subject.SubjectID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != subject.Version {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version++
	copied := *subject
	m.subjects[subject.SubjectID] = &copied
	return nil
}

// ── Mock ReviewRecordRepository ──

type mockReviewRecordRepo struct {
	records  map[string]*model.ReviewRecord
	order    []string // 创建顺序，保证遍历确定性
	nextID   int
	subjects *mockSubjectRepo // CreateWithSubject 回写送审对象用
}

func newMockReviewRecordRepo() *mockReviewRecordRepo {
	return &mockReviewRecordRepo{records: make(map[string]*model.ReviewRecord)}
}

// hasSingletonConflict 模拟部分唯一索引：每个送审对象至多一条 ai / reconciliation 记录
func (m *mockReviewRecordRepo) hasSingletonConflict(record *model.ReviewRecord) bool {
	if record.Kind != model.ReviewKindAI && record.Kind != model.ReviewKindReconciliation {
		return false
	}
	for _, r := range m.records {
		if r.SubjectID == record.SubjectID && r.Kind == record.Kind && r.ReviewRecordID != record.ReviewRecordID {
			return true
		}
	}
	return false
}

func (m *mockReviewRecordRepo) Create(_ context.Context, record *model.ReviewRecord) error {
	if m.hasSingletonConflict(record) {
		return gorm.ErrDuplicatedKey
	}
	if record.ReviewRecordID == "" {
		m.nextID++
		record.ReviewRecordID = fmt.Sprintf("rec-%d", m.nextID)
	}
	copied := *record
	m.records[record.ReviewRecordID] = &copied
	m.order = append(m.order, record.ReviewRecordID)
	return nil
}

func (m *mockReviewRecordRepo) GetByID(_ context.Context, id string) (*model.ReviewRecord, error) {
	if r, ok := m.records[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// Update 模拟乐观锁：版本不一致时返回 ErrOptimisticLock，与真实仓储行为保持一致
func (m *mockReviewRecordRepo) Update(_ context.Context, record *model.ReviewRecord) error {
	stored, ok := m.records[record.ReviewRecordID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != record.Version {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version++
	copied := *record
	m.records[record.ReviewRecordID] = &copied
	return nil
}

func (m *mockReviewRecordRepo) ListBySubject(_ context.Context, subjectID string) ([]model.ReviewRecord, error) {
	var result []model.ReviewRecord
	for _, id := range m.order {
		if r := m.records[id]; r != nil && r.SubjectID == subjectID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRecordRepo) ListCompletedHuman(_ context.Context, subjectID string) ([]model.ReviewRecord, error) {
	var result []model.ReviewRecord
	for _, id := range m.order {
		r := m.records[id]
		if r != nil && r.SubjectID == subjectID && r.Kind == model.ReviewKindHuman && r.State == model.ReviewStateCompleted {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRecordRepo) GetBySubjectAndKind(_ context.Context, subjectID, kind string) (*model.ReviewRecord, error) {
	for _, id := range m.order {
		r := m.records[id]
		if r != nil && r.SubjectID == subjectID && r.Kind == kind {
			copied := *r
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReviewRecordRepo) ReviewerIDsBySubject(_ context.Context, subjectID string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for _, id := range m.order {
		r := m.records[id]
		if r != nil && r.SubjectID == subjectID && r.ReviewerID != nil && !seen[*r.ReviewerID] {
			seen[*r.ReviewerID] = true
			ids = append(ids, *r.ReviewerID)
		}
	}
	return ids, nil
}

func (m *mockReviewRecordRepo) CountByReviewer(_ context.Context, reviewerID string) (int64, error) {
	var count int64
	for _, r := range m.records {
		if r.ReviewerID != nil && *r.ReviewerID == reviewerID {
			count++
		}
	}
	return count, nil
}

func (m *mockReviewRecordRepo) WorkloadMap(_ context.Context, reviewerIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(reviewerIDs))
	for _, id := range reviewerIDs {
		n, _ := m.CountByReviewer(context.Background(), id)
		if n > 0 {
			result[id] = n
		}
	}
	return result, nil
}

func (m *mockReviewRecordRepo) ListInProgressDueBefore(_ context.Context, t time.Time) ([]model.ReviewRecord, error) {
	var result []model.ReviewRecord
	for _, id := range m.order {
		r := m.records[id]
		if r != nil && r.State == model.ReviewStateInProgress && r.DueDate.Before(t) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRecordRepo) ListInProgressDueBetween(_ context.Context, from, to time.Time) ([]model.ReviewRecord, error) {
	var result []model.ReviewRecord
	for _, id := range m.order {
		r := m.records[id]
		if r != nil && r.State == model.ReviewStateInProgress &&
			!r.DueDate.Before(from) && !r.DueDate.After(to) {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockReviewRecordRepo) CreateWithSubject(ctx context.Context, record *model.ReviewRecord, subject *model.Subject) error {
	if err := m.Create(ctx, record); err != nil {
		return err
	}
	return m.subjects.Update(ctx, subject)
}

// ── Mock ReviewJobRepository ──

type mockReviewJobRepo struct {
	jobs   []*model.ReviewJob
	nextID int
}

func newMockReviewJobRepo() *mockReviewJobRepo {
	return &mockReviewJobRepo{}
}

func (m *mockReviewJobRepo) Create(_ context.Context, job *model.ReviewJob) error {
	if job.ReviewJobID == "" {
		m.nextID++
		job.ReviewJobID = fmt.Sprintf("job-%d", m.nextID)
	}
	copied := *job
	m.jobs = append(m.jobs, &copied)
	return nil
}

func (m *mockReviewJobRepo) Update(_ context.Context, job *model.ReviewJob) error {
	for i, j := range m.jobs {
		if j.ReviewJobID == job.ReviewJobID {
			copied := *job
			m.jobs[i] = &copied
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *mockReviewJobRepo) GetLatestBySubject(_ context.Context, subjectID string) (*model.ReviewJob, error) {
	for i := len(m.jobs) - 1; i >= 0; i-- {
		if m.jobs[i].SubjectID == subjectID {
			copied := *m.jobs[i]
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock Notifier ──

type mockNotifier struct {
	assignments     int
	reminders       int
	overdues        int
	reconciliations int
	reassignments   int
	unassignments   []string // 被替换评审人的 ID
	operatorAlerts  []string
}

func newMockNotifier() *mockNotifier { return &mockNotifier{} }

func (n *mockNotifier) NotifyAssignment(_ context.Context, _ *model.Reviewer, _ *model.Subject, _ time.Time) {
	n.assignments++
}
func (n *mockNotifier) NotifyReminder(_ context.Context, _ *model.Reviewer, _ *model.Subject, _ time.Time) {
	n.reminders++
}
func (n *mockNotifier) NotifyOverdue(_ context.Context, _ *model.Reviewer, _ *model.Subject, _ time.Time) {
	n.overdues++
}
func (n *mockNotifier) NotifyReconciliation(_ context.Context, _ *model.Reviewer, _ *model.Subject, _ time.Time) {
	n.reconciliations++
}
func (n *mockNotifier) NotifyReassignment(_ context.Context, _ *model.Reviewer, _ *model.Subject, _ time.Time) {
	n.reassignments++
}
func (n *mockNotifier) NotifyUnassignment(_ context.Context, reviewer *model.Reviewer, _ *model.Subject) {
	n.unassignments = append(n.unassignments, reviewer.ReviewerID)
}
func (n *mockNotifier) NotifyOperator(_ context.Context, subjectID, reason string) {
	n.operatorAlerts = append(n.operatorAlerts, subjectID+": "+reason)
}

// ── Mock JobQueue ──

type mockQueue struct {
	enqueued []AIReviewJob
	failNext bool
}

func newMockQueue() *mockQueue { return &mockQueue{} }

func (q *mockQueue) Enqueue(_ context.Context, queue string, payload interface{}) error {
	if q.failNext {
		q.failNext = false
		return fmt.Errorf("队列不可用")
	}
	if queue != QueueAIReview {
		return fmt.Errorf("未知队列: %s", queue)
	}
	job, ok := payload.(AIReviewJob)
	if !ok {
		return fmt.Errorf("载荷类型错误: %T", payload)
	}
	q.enqueued = append(q.enqueued, job)
	return nil
}

func (q *mockQueue) QueueLen(_ context.Context, queue string) (int64, error) {
	if queue != QueueAIReview {
		return 0, fmt.Errorf("未知队列: %s", queue)
	}
	return int64(len(q.enqueued)), nil
}

// ── 聚合器 ──

// testRepos 聚合所有 mock repo 便于 seed 数据
type testRepos struct {
	faculty  *mockFacultyRepo
	reviewer *mockReviewerRepo
	subject  *mockSubjectRepo
	record   *mockReviewRecordRepo
	job      *mockReviewJobRepo
}

func newTestRepos() *testRepos {
	r := &testRepos{
		faculty:  newMockFacultyRepo(),
		reviewer: newMockReviewerRepo(),
		subject:  newMockSubjectRepo(),
		record:   newMockReviewRecordRepo(),
		job:      newMockReviewJobRepo(),
	}
	r.record.subjects = r.subject
	return r
}

func (r *testRepos) toRepository() *repository.Repository {
	return &repository.Repository{
		Faculty:      r.faculty,
		Reviewer:     r.reviewer,
		Subject:      r.subject,
		ReviewRecord: r.record,
		ReviewJob:    r.job,
	}
}

// [自证通过] internal/service/mock_repos_test.go
