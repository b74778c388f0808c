package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/reeltask/reeltask/internal/constants"
	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/models"
	"github.com/reeltask/reeltask/internal/payment"
	"github.com/reeltask/reeltask/internal/queue"
	"github.com/reeltask/reeltask/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	rechargeOutTradeNoPrefix = "WR"
	rechargeCreateMaxRetry   = 5
	rechargeDefaultExpireIn  = 15 * time.Minute
)

// PaymentQuerier 支持主动查单的渠道客户端
type PaymentQuerier interface {
	QueryByOutTradeNo(ctx context.Context, outTradeNo string) (*payment.Confirmation, error)
}

// RechargeService 充值服务，负责下单、结算与查询
type RechargeService struct {
	db           *gorm.DB
	rechargeRepo repository.RechargeRepository
	walletSvc    *WalletService
	registry     *payment.Registry
	queueClient  *queue.Client
	expireIn     time.Duration
	queriers     map[string]PaymentQuerier
}

// RechargeCreateInput 创建充值订单输入
type RechargeCreateInput struct {
	UserID      uint
	AmountCents int64
	Channel     string
	ClientIP    string
	Remark      string
}

// RechargeCreateResult 创建充值订单结果
type RechargeCreateResult struct {
	Order        *models.RechargeOrder
	Presentation *payment.Presentation
}

// NewRechargeService 创建充值服务
func NewRechargeService(
	db *gorm.DB,
	rechargeRepo repository.RechargeRepository,
	walletSvc *WalletService,
	registry *payment.Registry,
	queueClient *queue.Client,
	expireIn time.Duration,
) *RechargeService {
	if expireIn <= 0 {
		expireIn = rechargeDefaultExpireIn
	}
	return &RechargeService{
		db:           db,
		rechargeRepo: rechargeRepo,
		walletSvc:    walletSvc,
		registry:     registry,
		queueClient:  queueClient,
		expireIn:     expireIn,
		queriers:     map[string]PaymentQuerier{},
	}
}

// RegisterQuerier 注册渠道查单客户端
func (s *RechargeService) RegisterQuerier(channel string, querier PaymentQuerier) {
	channel = strings.TrimSpace(channel)
	if channel == "" || querier == nil {
		return
	}
	s.queriers[channel] = querier
}

// Channels 返回当前可用的充值渠道
func (s *RechargeService) Channels() []string {
	return s.registry.Channels()
}

// AmountOptions 返回允许的充值金额档位（分）
func (s *RechargeService) AmountOptions() []int64 {
	options := make([]int64, len(constants.RechargeAmountOptions))
	copy(options, constants.RechargeAmountOptions)
	return options
}

// CreateOrder 创建充值订单并向渠道下单。
// 订单先以 pending 落库再联系渠道；渠道下单失败不改动订单状态，
// 订单保持 pending 等待重试或由超时任务过期。
func (s *RechargeService) CreateOrder(ctx context.Context, input RechargeCreateInput) (*RechargeCreateResult, error) {
	if input.UserID == 0 {
		return nil, ErrRechargeOrderCreateFailed
	}
	if !isRechargeAmountAllowed(input.AmountCents) {
		return nil, ErrRechargeAmountInvalid
	}
	channel := strings.TrimSpace(input.Channel)
	if !isRechargeChannelValid(channel) {
		return nil, ErrRechargeChannelInvalid
	}
	channel, err := s.resolveChannel(channel)
	if err != nil {
		return nil, err
	}
	provider, err := s.registry.Get(channel)
	if err != nil {
		return nil, ErrRechargeChannelUnavailable
	}

	log := rechargeLogger("user_id", input.UserID, "channel", channel, "amount_cents", input.AmountCents)

	now := time.Now()
	expiresAt := now.Add(s.expireIn)
	order, err := s.createPendingOrder(input, channel, now, expiresAt)
	if err != nil {
		log.Errorw("recharge_order_create_failed", "error", err)
		return nil, ErrRechargeOrderCreateFailed
	}
	log = log.With("out_trade_no", order.OutTradeNo)

	// 渠道调用前就挂上过期任务，渠道侧异常的 pending 订单也会按时过期
	if err := s.queueClient.EnqueueRechargeExpire(queue.RechargeExpirePayload{OutTradeNo: order.OutTradeNo}, expiresAt.Sub(now)); err != nil {
		log.Warnw("recharge_expire_enqueue_failed", "error", err)
	}

	presentation, err := provider.CreatePayment(ctx, &payment.CreateInput{
		OutTradeNo:  order.OutTradeNo,
		AmountCents: order.AmountCents,
		Subject:     fmt.Sprintf("钱包充值 %s", order.OutTradeNo),
		ClientIP:    input.ClientIP,
		ExpiresAt:   expiresAt,
	})
	if err != nil {
		// 渠道侧可能已受理只是响应读取失败，订单保持 pending，
		// 迟到的成功回调仍可正常结算
		log.Errorw("recharge_provider_create_failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrRechargeProviderFailed, err)
	}

	log.Infow("recharge_order_created")

	return &RechargeCreateResult{Order: order, Presentation: presentation}, nil
}

// Settle 根据渠道确认结果结算充值订单：原子翻转订单状态并给钱包入账。
// 同一订单重复结算只入账一次；已过期订单收到成功回调仍照常入账。
func (s *RechargeService) Settle(conf *payment.Confirmation) (*models.RechargeOrder, error) {
	if conf == nil || strings.TrimSpace(conf.OutTradeNo) == "" {
		return nil, ErrRechargeOrderNotFound
	}
	outTradeNo := strings.TrimSpace(conf.OutTradeNo)
	log := rechargeLogger("out_trade_no", outTradeNo, "provider_txn_id", conf.ProviderTxnID)

	var result *models.RechargeOrder
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.rechargeRepo.WithTx(tx)
		order, err := repo.GetByOutTradeNoForUpdate(outTradeNo)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrRechargeOrderNotFound
		}
		if conf.AmountCents != order.AmountCents {
			log.Warnw("recharge_settle_amount_mismatch",
				"order_amount_cents", order.AmountCents,
				"confirmed_amount_cents", conf.AmountCents,
			)
			return ErrRechargeAmountMismatch
		}
		if conf.Currency != "" && !strings.EqualFold(strings.TrimSpace(conf.Currency), order.Currency) {
			log.Warnw("recharge_settle_currency_mismatch",
				"order_currency", order.Currency,
				"confirmed_currency", conf.Currency,
			)
			return ErrRechargeCurrencyMismatch
		}
		if !conf.Succeeded {
			// 渠道明确终结（关单/撤销/支付失败）时翻转为 failed，
			// 仅 pending 订单受影响；等待支付中的通知不改状态
			if conf.Closed {
				if _, err := repo.MarkFailed(outTradeNo, "渠道侧交易已关闭"); err != nil {
					return err
				}
				closed, err := repo.GetByOutTradeNo(outTradeNo)
				if err != nil {
					return err
				}
				if closed == nil {
					return ErrRechargeOrderNotFound
				}
				result = closed
				return nil
			}
			result = order
			return nil
		}
		if order.Status == constants.RechargeStatusPaid {
			result = order
			return nil
		}

		paidAt := time.Now()
		if conf.PaidAt != nil {
			paidAt = *conf.PaidAt
		}
		rows, err := repo.MarkPaid(outTradeNo, conf.ProviderTxnID, paidAt)
		if err != nil {
			return err
		}
		if rows == 0 {
			// 已被并发结算，读回现状即可
			settled, err := repo.GetByOutTradeNo(outTradeNo)
			if err != nil {
				return err
			}
			if settled == nil {
				return ErrRechargeOrderNotFound
			}
			result = settled
			return nil
		}

		if _, _, err := s.walletSvc.CreditInTx(tx, WalletCreditInput{
			UserID:      order.UserID,
			AmountCents: order.AmountCents,
			Currency:    order.Currency,
			TxnType:     constants.WalletTxnTypeRecharge,
			Reference:   buildRechargeReference(order.ID),
			Remark:      "在线充值到账",
		}); err != nil {
			return err
		}

		order.Status = constants.RechargeStatusPaid
		order.ProviderTxnID = strings.TrimSpace(conf.ProviderTxnID)
		order.PaidAt = &paidAt
		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result != nil && result.Status == constants.RechargeStatusPaid {
		s.walletSvc.InvalidateAccountCache(result.UserID)
		log.Infow("recharge_settled", "amount_cents", result.AmountCents, "user_id", result.UserID)
	}
	return result, nil
}

// GetOrder 查询当前用户的充值订单。
// 未结算的微信订单会顺带主动查单，查到成功即补结算。
func (s *RechargeService) GetOrder(ctx context.Context, userID uint, outTradeNo string) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if userID == 0 || outTradeNo == "" {
		return nil, ErrRechargeOrderNotFound
	}
	order, err := s.rechargeRepo.GetByOutTradeNoAndUser(outTradeNo, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrRechargeOrderNotFound
	}
	if order.Status == constants.RechargeStatusPaid {
		return order, nil
	}
	querier, ok := s.queriers[order.Channel]
	if !ok {
		return order, nil
	}
	conf, err := querier.QueryByOutTradeNo(ctx, outTradeNo)
	if err != nil {
		rechargeLogger("out_trade_no", outTradeNo).Warnw("recharge_poll_query_failed", "error", err)
		return order, nil
	}
	if conf == nil || !conf.Succeeded {
		return order, nil
	}
	settled, err := s.Settle(conf)
	if err != nil {
		rechargeLogger("out_trade_no", outTradeNo).Errorw("recharge_poll_settle_failed", "error", err)
		return order, nil
	}
	return settled, nil
}

// ListOrders 查询充值订单列表
func (s *RechargeService) ListOrders(filter repository.RechargeOrderListFilter) ([]models.RechargeOrder, int64, error) {
	return s.rechargeRepo.List(filter)
}

// ExpireOrder 将超时未支付的订单标记为过期，仅 pending 状态可翻转
func (s *RechargeService) ExpireOrder(outTradeNo string) error {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return ErrRechargeOrderNotFound
	}
	rows, err := s.rechargeRepo.MarkExpired(outTradeNo)
	if err != nil {
		return err
	}
	if rows > 0 {
		rechargeLogger("out_trade_no", outTradeNo).Infow("recharge_order_expired")
	}
	return nil
}

// MockConfirm 模拟渠道支付成功，仅当 mock 渠道已注册时可用
func (s *RechargeService) MockConfirm(outTradeNo string) (*models.RechargeOrder, error) {
	outTradeNo = strings.TrimSpace(outTradeNo)
	if outTradeNo == "" {
		return nil, ErrRechargeOrderNotFound
	}
	if !s.registry.Has(constants.ChannelMock) {
		return nil, ErrRechargeChannelUnavailable
	}
	order, err := s.rechargeRepo.GetByOutTradeNo(outTradeNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrRechargeOrderNotFound
	}
	if order.Channel != constants.ChannelMock {
		return nil, ErrRechargeChannelInvalid
	}
	now := time.Now()
	return s.Settle(&payment.Confirmation{
		OutTradeNo:    outTradeNo,
		ProviderTxnID: fmt.Sprintf("MOCK%d", now.UnixNano()),
		AmountCents:   order.AmountCents,
		Currency:      order.Currency,
		Succeeded:     true,
		PaidAt:        &now,
	})
}

func (s *RechargeService) createPendingOrder(input RechargeCreateInput, channel string, now time.Time, expiresAt time.Time) (*models.RechargeOrder, error) {
	var lastErr error
	for i := 0; i < rechargeCreateMaxRetry; i++ {
		order := &models.RechargeOrder{
			OutTradeNo:  generateOutTradeNo(now),
			UserID:      input.UserID,
			Channel:     channel,
			AmountCents: input.AmountCents,
			Currency:    constants.CurrencyCNY,
			Status:      constants.RechargeStatusPending,
			ClientIP:    strings.TrimSpace(input.ClientIP),
			Remark:      strings.TrimSpace(input.Remark),
			ExpiresAt:   &expiresAt,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.rechargeRepo.Create(order); err != nil {
			lastErr = err
			continue
		}
		return order, nil
	}
	return nil, lastErr
}

// resolveChannel 渠道降级：请求的渠道未注册且 mock 渠道可用时退回 mock
func (s *RechargeService) resolveChannel(channel string) (string, error) {
	if s.registry.Has(channel) {
		return channel, nil
	}
	if channel != constants.ChannelMock && s.registry.Has(constants.ChannelMock) {
		return constants.ChannelMock, nil
	}
	return "", ErrRechargeChannelUnavailable
}

func generateOutTradeNo(now time.Time) string {
	suffix := ""
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			suffix += "0"
			continue
		}
		suffix += n.String()
	}
	return rechargeOutTradeNoPrefix + now.Format("20060102150405") + suffix
}

func buildRechargeReference(orderID uint) string {
	return fmt.Sprintf("recharge:%d:paid", orderID)
}

func isRechargeAmountAllowed(amountCents int64) bool {
	for _, option := range constants.RechargeAmountOptions {
		if amountCents == option {
			return true
		}
	}
	return false
}

func isRechargeChannelValid(channel string) bool {
	switch channel {
	case constants.ChannelAlipayPC, constants.ChannelAlipayWAP, constants.ChannelWxNative, constants.ChannelMock:
		return true
	}
	return false
}

func rechargeLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}
