package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RechargeRepository 充值订单数据访问接口
type RechargeRepository interface {
	Create(order *models.RechargeOrder) error
	Update(order *models.RechargeOrder) error
	GetByOutTradeNo(outTradeNo string) (*models.RechargeOrder, error)
	GetByOutTradeNoForUpdate(outTradeNo string) (*models.RechargeOrder, error)
	GetByOutTradeNoAndUser(outTradeNo string, userID uint) (*models.RechargeOrder, error)
	List(filter RechargeOrderListFilter) ([]models.RechargeOrder, int64, error)
	MarkPaid(outTradeNo, providerTxnID string, paidAt time.Time) (int64, error)
	MarkFailed(outTradeNo, remark string) (int64, error)
	MarkExpired(outTradeNo string) (int64, error)
	WithTx(tx *gorm.DB) *GormRechargeRepository
}

// GormRechargeRepository GORM 充值订单仓储实现
type GormRechargeRepository struct {
	db *gorm.DB
}

// NewRechargeRepository 创建充值订单仓储
func NewRechargeRepository(db *gorm.DB) *GormRechargeRepository {
	return &GormRechargeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRechargeRepository) WithTx(tx *gorm.DB) *GormRechargeRepository {
	if tx == nil {
		return r
	}
	return &GormRechargeRepository{db: tx}
}

// Create 创建充值订单
func (r *GormRechargeRepository) Create(order *models.RechargeOrder) error {
	return r.db.Create(order).Error
}

// Update 更新充值订单
func (r *GormRechargeRepository) Update(order *models.RechargeOrder) error {
	return r.db.Save(order).Error
}

// GetByOutTradeNo 按商户订单号查询充值订单
func (r *GormRechargeRepository) GetByOutTradeNo(outTradeNo string) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, nil
	}
	var order models.RechargeOrder
	if err := r.db.Where("out_trade_no = ?", outTradeNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOutTradeNoForUpdate 按商户订单号加锁查询充值订单
func (r *GormRechargeRepository) GetByOutTradeNoForUpdate(outTradeNo string) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, nil
	}
	var order models.RechargeOrder
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("out_trade_no = ?", outTradeNo).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOutTradeNoAndUser 按商户订单号和用户查询充值订单
func (r *GormRechargeRepository) GetByOutTradeNoAndUser(outTradeNo string, userID uint) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" || userID == 0 {
		return nil, nil
	}
	var order models.RechargeOrder
	if err := r.db.Where("out_trade_no = ? AND user_id = ?", outTradeNo, userID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 分页查询充值订单
func (r *GormRechargeRepository) List(filter RechargeOrderListFilter) ([]models.RechargeOrder, int64, error) {
	query := r.db.Model(&models.RechargeOrder{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", filter.Channel)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OutTradeNo != "" {
		query = query.Where("out_trade_no = ?", filter.OutTradeNo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.RechargeOrder
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// MarkPaid 条件更新为已支付，仅未入账订单命中。本地已标记
// expired/failed 的订单迟到的成功回调同样入账，实际收款以渠道为准
func (r *GormRechargeRepository) MarkPaid(outTradeNo, providerTxnID string, paidAt time.Time) (int64, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return 0, nil
	}
	result := r.db.Model(&models.RechargeOrder{}).
		Where("out_trade_no = ? AND status IN ?", outTradeNo,
			[]string{constants.RechargeStatusPending, constants.RechargeStatusExpired, constants.RechargeStatusFailed}).
		UpdateColumns(map[string]interface{}{
			"status":          constants.RechargeStatusPaid,
			"provider_txn_id": strings.TrimSpace(providerTxnID),
			"paid_at":         paidAt,
			"updated_at":      time.Now(),
		})
	return result.RowsAffected, result.Error
}

// MarkFailed 条件更新为失败，仅 pending 订单命中
func (r *GormRechargeRepository) MarkFailed(outTradeNo, remark string) (int64, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return 0, nil
	}
	result := r.db.Model(&models.RechargeOrder{}).
		Where("out_trade_no = ? AND status = ?", outTradeNo, constants.RechargeStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":     constants.RechargeStatusFailed,
			"remark":     strings.TrimSpace(remark),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

// MarkExpired 条件更新为过期，仅 pending 订单命中
func (r *GormRechargeRepository) MarkExpired(outTradeNo string) (int64, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return 0, nil
	}
	result := r.db.Model(&models.RechargeOrder{}).
		Where("out_trade_no = ? AND status = ?", outTradeNo, constants.RechargeStatusPending).
		UpdateColumns(map[string]interface{}{
			"status":     constants.RechargeStatusExpired,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
