package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	pkgerrors "github.com/unibeninterns/ubjh-server-sub000/pkg/errors"
)

// ReviewRecordRepository 评审记录数据访问接口
type ReviewRecordRepository interface {
	Create(ctx context.Context, record *model.ReviewRecord) error
	GetByID(ctx context.Context, id string) (*model.ReviewRecord, error)
	Update(ctx context.Context, record *model.ReviewRecord) error
	ListBySubject(ctx context.Context, subjectID string) ([]model.ReviewRecord, error)
	ListCompletedHuman(ctx context.Context, subjectID string) ([]model.ReviewRecord, error)
	GetBySubjectAndKind(ctx context.Context, subjectID, kind string) (*model.ReviewRecord, error)
	ReviewerIDsBySubject(ctx context.Context, subjectID string) ([]string, error)
	CountByReviewer(ctx context.Context, reviewerID string) (int64, error)
	WorkloadMap(ctx context.Context, reviewerIDs []string) (map[string]int64, error)
	ListInProgressDueBefore(ctx context.Context, t time.Time) ([]model.ReviewRecord, error)
	ListInProgressDueBetween(ctx context.Context, from, to time.Time) ([]model.ReviewRecord, error)
	// CreateWithSubject 在同一事务内创建评审记录并更新送审对象状态
	// 仲裁派发依赖该原子性：两者同时成功或同时失败
	CreateWithSubject(ctx context.Context, record *model.ReviewRecord, subject *model.Subject) error
}

// reviewRecordRepo ReviewRecordRepository 的 GORM 实现
type reviewRecordRepo struct {
	db *gorm.DB
}

// NewReviewRecordRepo 创建 ReviewRecordRepository 实例
func NewReviewRecordRepo(db *gorm.DB) ReviewRecordRepository {
	return &reviewRecordRepo{db: db}
}

func (r *reviewRecordRepo) Create(ctx context.Context, record *model.ReviewRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *reviewRecordRepo) GetByID(ctx context.Context, id string) (*model.ReviewRecord, error) {
	var record model.ReviewRecord
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Preload("Subject").
		Where("review_record_id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update 乐观锁整行更新：版本不匹配表示记录已被并发修改，返回 ErrOptimisticLock
// 提交、改派与到期扫描共用此入口，保证对同一评审记录的写入按实体串行化
func (r *reviewRecordRepo) Update(ctx context.Context, record *model.ReviewRecord) error {
	oldVersion := record.Version
	result := r.db.WithContext(ctx).
		Model(record).
		Where("review_record_id = ? AND version = ?", record.ReviewRecordID, oldVersion).
		Updates(map[string]interface{}{
			"reviewer_id":          record.ReviewerID,
			"previous_reviewer_id": record.PreviousReviewerID,
			"state":                record.State,
			"due_date":             record.DueDate,
			"completed_at":         record.CompletedAt,
			"scores":               record.Scores,
			"total_score":          record.TotalScore,
			"decision":             record.Decision,
			"comments":             record.Comments,
			"updated_by":           record.UpdatedBy,
			"version":              oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	record.Version = oldVersion + 1
	return nil
}

func (r *reviewRecordRepo) ListBySubject(ctx context.Context, subjectID string) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("subject_id = ?", subjectID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

func (r *reviewRecordRepo) ListCompletedHuman(ctx context.Context, subjectID string) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Where("subject_id = ?", subjectID).
		Where("kind = ?", model.ReviewKindHuman).
		Where("state = ?", model.ReviewStateCompleted).
		Order("completed_at ASC").
		Find(&records).Error
	return records, err
}

func (r *reviewRecordRepo) GetBySubjectAndKind(ctx context.Context, subjectID, kind string) (*model.ReviewRecord, error) {
	var record model.ReviewRecord
	err := r.db.WithContext(ctx).
		Where("subject_id = ?", subjectID).
		Where("kind = ?", kind).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *reviewRecordRepo) ReviewerIDsBySubject(ctx context.Context, subjectID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&model.ReviewRecord{}).
		Where("subject_id = ?", subjectID).
		Where("reviewer_id IS NOT NULL").
		Distinct().
		Pluck("reviewer_id", &ids).Error
	return ids, err
}

// CountByReviewer 统计评审人历史累计任务数（AI 记录 reviewer_id 为 NULL，天然不计入）
func (r *reviewRecordRepo) CountByReviewer(ctx context.Context, reviewerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ReviewRecord{}).
		Where("reviewer_id = ?", reviewerID).
		Count(&count).Error
	return count, err
}

// WorkloadMap 批量统计工作量，未出现在结果中的评审人工作量为 0
func (r *reviewRecordRepo) WorkloadMap(ctx context.Context, reviewerIDs []string) (map[string]int64, error) {
	result := make(map[string]int64, len(reviewerIDs))
	if len(reviewerIDs) == 0 {
		return result, nil
	}

	type row struct {
		ReviewerID string
		Count      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.ReviewRecord{}).
		Select("reviewer_id, COUNT(*) AS count").
		Where("reviewer_id IN ?", reviewerIDs).
		Group("reviewer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		result[r.ReviewerID] = r.Count
	}
	return result, nil
}

func (r *reviewRecordRepo) ListInProgressDueBefore(ctx context.Context, t time.Time) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Preload("Subject").
		Where("state = ?", model.ReviewStateInProgress).
		Where("due_date < ?", t).
		Find(&records).Error
	return records, err
}

func (r *reviewRecordRepo) ListInProgressDueBetween(ctx context.Context, from, to time.Time) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	err := r.db.WithContext(ctx).
		Preload("Reviewer").
		Preload("Subject").
		Where("state = ?", model.ReviewStateInProgress).
		Where("due_date >= ? AND due_date <= ?", from, to).
		Find(&records).Error
	return records, err
}

func (r *reviewRecordRepo) CreateWithSubject(ctx context.Context, record *model.ReviewRecord, subject *model.Subject) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return updateSubjectVersioned(tx, subject)
	})
}

// [自证通过] internal/repository/review_record_repo.go
