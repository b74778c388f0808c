package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/reeltask/reeltask/internal/logger"
	"github.com/reeltask/reeltask/internal/provider"
	"github.com/reeltask/reeltask/internal/queue"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskRechargeExpire, c.handleRechargeExpire)
}

func (c *Consumer) handleRechargeExpire(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_recharge_expire_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.RechargeExpirePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_recharge_expire_unmarshal_failed", "error", err)
		return err
	}
	outTradeNo := strings.TrimSpace(payload.OutTradeNo)
	if outTradeNo == "" {
		logger.Debugw("worker_recharge_expire_skip_invalid_payload")
		return nil
	}
	if c.RechargeService == nil {
		logger.Warnw("worker_recharge_expire_skip_service_nil", "out_trade_no", outTradeNo)
		return nil
	}
	if err := c.RechargeService.ExpireOrder(outTradeNo); err != nil {
		if errors.Is(err, service.ErrRechargeOrderNotFound) {
			logger.Debugw("worker_recharge_expire_skip_order_not_found", "out_trade_no", outTradeNo)
			return nil
		}
		logger.Warnw("worker_recharge_expire_failed", "out_trade_no", outTradeNo, "error", err)
		return err
	}
	return nil
}
