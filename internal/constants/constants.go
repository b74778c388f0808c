package constants

// 充值订单状态常量
const (
	RechargeStatusPending = "pending"
	RechargeStatusPaid    = "paid"
	RechargeStatusFailed  = "failed"
	RechargeStatusExpired = "expired"
)

// 支付渠道常量
const (
	ChannelAlipayPC  = "alipay_pc"
	ChannelAlipayWAP = "alipay_wap"
	ChannelWxNative  = "wx_native"
	ChannelMock      = "mock"
)

// 充值金额档位（单位：分）
var RechargeAmountOptions = []int64{100, 500, 1000, 5000, 10000}

// 钱包交易类型常量
const (
	WalletTxnTypeRecharge   = "recharge"
	WalletTxnTypePublishFee = "publish_fee"
)

// 钱包交易方向常量
const (
	WalletTxnDirectionIn  = "in"
	WalletTxnDirectionOut = "out"
)

// 任务状态常量
const (
	TaskStatusDraft     = "draft"
	TaskStatusPublished = "published"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 支付宝回调常量
const (
	AlipayTradeStatusSuccess      = "TRADE_SUCCESS"
	AlipayTradeStatusFinished     = "TRADE_FINISHED"
	AlipayTradeStatusClosed       = "TRADE_CLOSED"
	AlipayTradeStatusWaitBuyerPay = "WAIT_BUYER_PAY"
	AlipayCallbackSuccess         = "success"
	AlipayCallbackFail            = "fail"
)

// 微信支付回调常量
const (
	WechatTradeStateSuccess  = "SUCCESS"
	WechatTradeStateClosed   = "CLOSED"
	WechatTradeStateRevoked  = "REVOKED"
	WechatTradeStatePayError = "PAYERROR"
)

// 队列常量
const (
	QueueDefault       = "default"
	TaskRechargeExpire = "recharge:timeout_expire"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "rt"
)

// 币种常量
const (
	CurrencyCNY = "CNY"
)
