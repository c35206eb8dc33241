package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 审计字段：创建/更新时间与操作人
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	CreatedBy *string   `gorm:"type:uuid"                          json:"created_by,omitempty"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	UpdatedBy *string   `gorm:"type:uuid"                          json:"updated_by,omitempty"`
}

// StampCreate 新建记录时同时写入创建人与更新人
func (m *BaseModel) StampCreate(userID string) {
	m.CreatedBy = &userID
	m.UpdatedBy = &userID
}

// StampUpdate 记录最后操作人
func (m *BaseModel) StampUpdate(userID string) {
	m.UpdatedBy = &userID
}

// SoftDeleteModel 软删除：deleted_at 非空的行被 GORM 默认过滤
type SoftDeleteModel struct {
	BaseModel
	DeletedAt gorm.DeletedAt `gorm:"index"    json:"deleted_at,omitempty"`
	DeletedBy *string        `gorm:"type:uuid" json:"deleted_by,omitempty"`
}

// VersionedModel 软删除 + 乐观锁版本号（文章、导师资料）
type VersionedModel struct {
	SoftDeleteModel
	Version int `gorm:"not null;default:1" json:"version"`
}
