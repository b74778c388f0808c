package models

import (
	"time"

	"gorm.io/gorm"
)

// Task 视频制作任务
type Task struct {
	ID              uint           `gorm:"primarykey" json:"id"`                          // 主键
	CreatorID       uint           `gorm:"index;not null" json:"creator_id"`              // 发布者用户ID
	Title           string         `gorm:"type:varchar(200);not null" json:"title"`       // 任务标题
	Description     string         `gorm:"type:text" json:"description"`                  // 任务描述
	Status          string         `gorm:"type:varchar(20);index;not null" json:"status"` // 任务状态（draft/published）
	PublishFeeCents int64          `gorm:"not null;default:0" json:"publish_fee_cents"`   // 发布手续费（分）
	PublishedAt     *time.Time     `gorm:"index" json:"published_at"`                     // 发布时间
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`                       // 创建时间
	UpdatedAt       time.Time      `gorm:"index" json:"updated_at"`                       // 更新时间
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`                                // 软删除时间
}

// TableName 指定表名
func (Task) TableName() string {
	return "tasks"
}
