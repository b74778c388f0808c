package models

import (
	"time"

	"gorm.io/gorm"
)

// RechargeOrder 钱包充值订单
type RechargeOrder struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                     // 主键
	OutTradeNo    string         `gorm:"type:varchar(40);uniqueIndex;not null" json:"out_trade_no"` // 商户订单号
	UserID        uint           `gorm:"index;not null" json:"user_id"`                            // 用户ID
	Channel       string         `gorm:"type:varchar(32);index;not null" json:"channel"`           // 实际支付渠道
	AmountCents   int64          `gorm:"not null" json:"amount_cents"`                             // 充值金额（分）
	Currency      string         `gorm:"type:varchar(16);not null;default:'CNY'" json:"currency"`  // 币种
	Status        string         `gorm:"type:varchar(20);index;not null" json:"status"`            // 订单状态
	ProviderTxnID string         `gorm:"type:varchar(64);index" json:"provider_txn_id"`            // 渠道侧交易号
	ClientIP      string         `gorm:"type:varchar(45)" json:"-"`                                // 下单客户端 IP
	Remark        string         `gorm:"type:varchar(255)" json:"remark"`                          // 备注
	PaidAt        *time.Time     `gorm:"index" json:"paid_at"`                                     // 支付完成时间
	ExpiresAt     *time.Time     `gorm:"index" json:"expires_at"`                                  // 过期时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                  // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                  // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                           // 软删除时间
}

// TableName 指定表名
func (RechargeOrder) TableName() string {
	return "recharge_orders"
}
