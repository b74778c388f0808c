package public

import (
	"errors"
	"strings"

	"github.com/reeltask/reeltask/internal/http/response"
	"github.com/reeltask/reeltask/internal/service"

	"github.com/gin-gonic/gin"
)

// MockPay 模拟渠道支付确认，仅开发联调环境可用
func (h *Handler) MockPay(c *gin.Context) {
	outTradeNo := strings.TrimSpace(c.Query("out_trade_no"))
	if outTradeNo == "" {
		respondError(c, response.CodeBadRequest, "缺少订单号", nil)
		return
	}
	order, err := h.RechargeService.MockConfirm(outTradeNo)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRechargeOrderNotFound):
			respondError(c, response.CodeNotFound, "充值订单不存在", nil)
		case errors.Is(err, service.ErrRechargeChannelUnavailable):
			respondError(c, response.CodeUnavailable, "模拟渠道未启用", nil)
		case errors.Is(err, service.ErrRechargeChannelInvalid):
			respondError(c, response.CodeBadRequest, "该订单不属于模拟渠道", nil)
		default:
			respondError(c, response.CodeInternal, "模拟支付失败", err)
		}
		return
	}
	requestLog(c).Infow("mock_pay_confirmed", "out_trade_no", order.OutTradeNo, "status", order.Status)
	response.Success(c, order)
}
