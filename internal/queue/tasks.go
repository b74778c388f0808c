package queue

import (
	"encoding/json"

	"github.com/reeltask/reeltask/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskRechargeExpire 充值订单超时过期任务
	TaskRechargeExpire = constants.TaskRechargeExpire
)

// RechargeExpirePayload 充值订单超时过期任务载荷
type RechargeExpirePayload struct {
	OutTradeNo string `json:"out_trade_no"`
}

// NewRechargeExpireTask 创建充值订单超时过期任务
func NewRechargeExpireTask(payload RechargeExpirePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRechargeExpire, body, asynq.MaxRetry(3)), nil
}
