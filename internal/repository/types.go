package repository

import "time"

// RechargeOrderListFilter 查询充值订单列表的过滤条件
type RechargeOrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Channel     string
	Status      string
	OutTradeNo  string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WalletTransactionListFilter 查询钱包流水列表的过滤条件
type WalletTransactionListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Type        string
	Direction   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// TaskListFilter 查询任务列表的过滤条件
type TaskListFilter struct {
	Page      int
	PageSize  int
	CreatorID uint
	Status    string
}
