package service

import "errors"

// 充值相关错误
var (
	ErrRechargeAmountInvalid      = errors.New("recharge amount not allowed")
	ErrRechargeChannelInvalid     = errors.New("recharge channel invalid")
	ErrRechargeChannelUnavailable = errors.New("recharge channel unavailable")
	ErrRechargeOrderNotFound      = errors.New("recharge order not found")
	ErrRechargeOrderCreateFailed  = errors.New("recharge order create failed")
	ErrRechargeAmountMismatch     = errors.New("recharge amount mismatch")
	ErrRechargeCurrencyMismatch   = errors.New("recharge currency mismatch")
	ErrRechargeProviderFailed     = errors.New("recharge provider request failed")
	ErrRechargeSettleFailed       = errors.New("recharge settle failed")
)

// 钱包相关错误
var (
	ErrWalletAccountNotFound         = errors.New("wallet account not found")
	ErrWalletAccountCreateFailed     = errors.New("wallet account create failed")
	ErrWalletInvalidAmount           = errors.New("wallet amount invalid")
	ErrWalletInsufficientBalance     = errors.New("wallet balance insufficient")
	ErrWalletTransactionCreateFailed = errors.New("wallet transaction create failed")
)

// 任务相关错误
var (
	ErrTaskNotFound       = errors.New("task not found")
	ErrTaskNotOwned       = errors.New("task not owned by user")
	ErrTaskStatusInvalid  = errors.New("task status invalid")
	ErrTaskTitleRequired  = errors.New("task title required")
	ErrTaskPublishFailed  = errors.New("task publish failed")
	ErrTaskCreateFailed   = errors.New("task create failed")
)
