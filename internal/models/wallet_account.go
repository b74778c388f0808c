package models

import (
	"time"

	"gorm.io/gorm"
)

// WalletAccount 用户钱包账户，余额以分为单位，永不为负
type WalletAccount struct {
	ID           uint           `gorm:"primarykey" json:"id"`                        // 主键
	UserID       uint           `gorm:"uniqueIndex;not null" json:"user_id"`         // 用户ID
	BalanceCents int64          `gorm:"not null;default:0" json:"balance_cents"`     // 当前余额（分）
	Currency     string         `gorm:"type:varchar(16);not null;default:'CNY'" json:"currency"` // 币种
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                     // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`                     // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                              // 软删除时间
}

// TableName 指定表名
func (WalletAccount) TableName() string {
	return "wallet_accounts"
}
